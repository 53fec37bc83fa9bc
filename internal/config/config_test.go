package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Recognition.URL)
	assert.Equal(t, "/api/recognize", cfg.Recognition.Path)
	assert.Equal(t, SourceSynthetic, cfg.Camera.Source)
	assert.Equal(t, "127.0.0.1:8090", cfg.Web.Listen)
	assert.False(t, cfg.MQTT.Enabled())
	assert.Equal(t, "http://localhost:8000/api/recognize", cfg.RecognitionEndpoint())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
recognition:
  url: http://127.0.0.1:9000
  path: recognize
camera:
  source: stills
  stills_dir: /tmp/frames
mqtt:
  broker: tcp://127.0.0.1:1883
log:
  level: debug
`), 0o644))
	t.Setenv("LIVEREC_WEB_LISTEN", ":9999")
	t.Setenv("LIVEREC_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000", cfg.Recognition.URL)
	assert.Equal(t, "/recognize", cfg.Recognition.Path)
	assert.Equal(t, SourceStills, cfg.Camera.Source)
	assert.Equal(t, ":9999", cfg.Web.Listen)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, "live-recognition", cfg.MQTT.Topic)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, SourceSynthetic, cfg.Camera.Source)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recognition: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *AppConfig) {}},
		{
			name:    "unknown camera source",
			mutate:  func(c *AppConfig) { c.Camera.Source = "webcam2000" },
			wantErr: "unknown camera source",
		},
		{
			name:    "stills source needs a directory",
			mutate:  func(c *AppConfig) { c.Camera.Source = SourceStills },
			wantErr: "stills_dir is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *AppConfig) { c.Log.Level = "loud" },
			wantErr: "invalid log level",
		},
		{
			name: "ephemeral settings need no path",
			mutate: func(c *AppConfig) {
				c.Settings.Path = ""
				c.Settings.Ephemeral = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv_BoolParsing(t *testing.T) {
	cfg := Defaults()
	applyEnv(cfg, map[string]interface{}{"SETTINGS_EPHEMERAL": "true", "CAMERA_DEVICE": " /dev/video2 "})
	assert.True(t, cfg.Settings.Ephemeral)
	assert.Equal(t, "/dev/video2", cfg.Camera.Device)

	applyEnv(cfg, map[string]interface{}{"SETTINGS_EPHEMERAL": "maybe"})
	assert.True(t, cfg.Settings.Ephemeral, "unparseable values leave the field alone")
}

func TestResolveServiceURL(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		expected   string
	}{
		{name: "empty uses fallback", configured: "", expected: "http://recognition:8000"},
		{name: "localhost keeps port", configured: "http://localhost:5000", expected: "http://localhost:5000"},
		{name: "localhost default port", configured: "http://localhost", expected: "http://localhost:8000"},
		{name: "ip address", configured: "http://10.0.0.5:8080", expected: "http://10.0.0.5:8080"},
		{name: "ipv6 address", configured: "http://[::1]:8080", expected: "http://[::1]:8080"},
		{name: "https hostname is not resolved", configured: "https://faces.example.com", expected: "https://faces.example.com:443"},
		{name: "unparseable falls back", configured: "://nope", expected: "http://recognition:8000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveServiceURL(tt.configured, "recognition", "8000"))
		})
	}
}
