package cmd

import (
	"bytes"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/smegmarip/live-recognition/internal/config"
	"github.com/smegmarip/live-recognition/internal/settings"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "yes\n", want: true},
		{name: "y uppercase", input: "Y\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty line", input: "\n", want: false},
		{name: "eof", input: "", want: false},
		{name: "yes without newline", input: "y", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tt.want, confirm(strings.NewReader(tt.input), &out, "Reset?"))
			assert.Equal(t, "Reset? [y/N]: ", out.String())
		})
	}
}

func TestWriteSettings(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		want    string
		wantErr bool
	}{
		{name: "json", format: "json", want: `"pollIntervalMs": 2000`},
		{name: "yaml", format: "yaml", want: "pollIntervalMs: 2000"},
		{name: "default is yaml", format: "", want: "pollIntervalMs: 2000"},
		{name: "unknown", format: "toml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeSettings(&buf, settings.DefaultSettings(), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestWriteSettingsYAMLIsParseable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSettings(&buf, settings.DefaultSettings(), "yaml"))

	var doc map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "balanced", doc["advanced"]["processingMode"])
}

func TestSettingsStorage(t *testing.T) {
	cfg := config.Defaults()
	cfg.Settings.Ephemeral = true
	assert.IsType(t, &settings.MemoryStorage{}, settingsStorage(cfg))

	cfg.Settings.Ephemeral = false
	cfg.Settings.Path = t.TempDir() + "/settings.json"
	assert.IsType(t, &settings.FileStorage{}, settingsStorage(cfg))
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	})

	assert.NoError(t, setupLogging(config.LogConfig{Level: "debug", Format: "json"}))
	assert.NoError(t, setupLogging(config.LogConfig{Level: "info", Format: "text"}))
	assert.Error(t, setupLogging(config.LogConfig{Level: "loud"}))
}
