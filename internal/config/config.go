package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override
const EnvPrefix = "LIVEREC_"

// Defaults returns the built-in configuration
func Defaults() *AppConfig {
	return &AppConfig{
		Recognition: RecognitionConfig{
			URL:  "http://localhost:8000",
			Path: "/api/recognize",
		},
		Settings: SettingsConfig{
			Path: defaultSettingsPath(),
		},
		Captures: CapturesConfig{
			Dir: "captures",
		},
		Camera: CameraConfig{
			Source: SourceSynthetic,
			Device: "/dev/video0",
		},
		Web: WebConfig{
			Listen: "127.0.0.1:8090",
		},
		MQTT: MQTTConfig{
			Topic:    "live-recognition",
			ClientID: "live-recognition",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "live-recognition", "settings.json")
}

// Load builds the configuration from defaults, an optional YAML file and
// LIVEREC_* environment overrides, then resolves and validates it. An empty
// path or a missing file is not an error.
func Load(path string) (*AppConfig, error) {
	config := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warnf("Config file %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnv(config, envMap())

	config.Recognition.URL = resolveServiceURL(config.Recognition.URL, "recognition", "8000")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func envMap() map[string]interface{} {
	env := make(map[string]interface{})
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			env[strings.TrimPrefix(k, EnvPrefix)] = v
		}
	}
	return env
}

// applyEnv overrides config fields from a map keyed by the unprefixed
// environment variable name
func applyEnv(config *AppConfig, env map[string]interface{}) {
	if val := getStringSetting(env, "RECOGNITION_URL"); val != "" {
		config.Recognition.URL = val
	}
	if val := getStringSetting(env, "RECOGNITION_PATH"); val != "" {
		config.Recognition.Path = val
	}
	if val := getStringSetting(env, "SETTINGS_PATH"); val != "" {
		config.Settings.Path = val
	}
	if val, ok := getBoolSetting(env, "SETTINGS_EPHEMERAL"); ok {
		config.Settings.Ephemeral = val
	}
	if val := getStringSetting(env, "CAPTURES_DIR"); val != "" {
		config.Captures.Dir = val
	}
	if val := getStringSetting(env, "CAMERA_SOURCE"); val != "" {
		config.Camera.Source = val
	}
	if val := getStringSetting(env, "CAMERA_DEVICE"); val != "" {
		config.Camera.Device = val
	}
	if val := getStringSetting(env, "CAMERA_REAR_DEVICE"); val != "" {
		config.Camera.RearDevice = val
	}
	if val := getStringSetting(env, "CAMERA_STILLS_DIR"); val != "" {
		config.Camera.StillsDir = val
	}
	if val := getStringSetting(env, "WEB_LISTEN"); val != "" {
		config.Web.Listen = val
	}
	if val := getStringSetting(env, "MQTT_BROKER"); val != "" {
		config.MQTT.Broker = val
	}
	if val := getStringSetting(env, "MQTT_TOPIC"); val != "" {
		config.MQTT.Topic = val
	}
	if val := getStringSetting(env, "MQTT_CLIENT_ID"); val != "" {
		config.MQTT.ClientID = val
	}
	if val := getStringSetting(env, "MQTT_USERNAME"); val != "" {
		config.MQTT.Username = val
	}
	if val := getStringSetting(env, "MQTT_PASSWORD"); val != "" {
		config.MQTT.Password = val
	}
	if val := getStringSetting(env, "LOG_LEVEL"); val != "" {
		config.Log.Level = val
	}
	if val := getStringSetting(env, "LOG_FORMAT"); val != "" {
		config.Log.Format = val
	}
}

// Validate checks the configuration and backfills empty optional values
func (c *AppConfig) Validate() error {
	if c.Recognition.Path == "" {
		c.Recognition.Path = "/api/recognize"
	}
	if !strings.HasPrefix(c.Recognition.Path, "/") {
		c.Recognition.Path = "/" + c.Recognition.Path
	}
	switch c.Camera.Source {
	case SourceGStreamer, SourceSynthetic:
	case SourceStills:
		if c.Camera.StillsDir == "" {
			return fmt.Errorf("camera.stills_dir is required for the %s source", SourceStills)
		}
	default:
		return fmt.Errorf("unknown camera source %q", c.Camera.Source)
	}
	if c.Settings.Path == "" && !c.Settings.Ephemeral {
		return fmt.Errorf("settings.path is required unless settings.ephemeral is set")
	}
	if c.Captures.Dir == "" {
		c.Captures.Dir = "captures"
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if c.MQTT.Enabled() && c.MQTT.Topic == "" {
		c.MQTT.Topic = "live-recognition"
	}
	return nil
}

// RecognitionEndpoint returns the full URL of the recognition endpoint
func (c *AppConfig) RecognitionEndpoint() string {
	return strings.TrimRight(c.Recognition.URL, "/") + c.Recognition.Path
}

// getStringSetting retrieves a string setting from a raw settings map
func getStringSetting(config map[string]interface{}, key string) string {
	if val, ok := config[key]; ok {
		if str, ok := val.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}

// getBoolSetting retrieves a boolean setting; ok is false when absent or
// unparseable
func getBoolSetting(config map[string]interface{}, key string) (bool, bool) {
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case bool:
			return v, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err == nil {
				return b, true
			}
		}
	}
	return false, false
}

// resolveServiceURL resolves the service URL with proper DNS lookup.
// Handles IP addresses, hostnames, container names, and localhost.
//
// Parameters:
//   - configuredURL: The URL from configuration (may be empty)
//   - defaultHost: Default host name when nothing is configured
//   - defaultPort: Default port number
//
// Returns: Resolved URL
func resolveServiceURL(configuredURL string, defaultHost string, defaultPort string) string {
	const defaultScheme = "http"
	var hardcodedFallback = fmt.Sprintf("%s://%s:%s", defaultScheme, defaultHost, defaultPort)

	if configuredURL == "" {
		log.Infof("No service URL configured, using default: %s", hardcodedFallback)
		return hardcodedFallback
	}

	parsedURL, err := url.Parse(configuredURL)
	if err != nil || parsedURL.Hostname() == "" {
		log.Warnf("Failed to parse service URL '%s': %v, using fallback", configuredURL, err)
		return hardcodedFallback
	}

	hostname := parsedURL.Hostname()
	port := parsedURL.Port()
	scheme := parsedURL.Scheme

	if scheme == "" {
		scheme = defaultScheme
	}
	if port == "" {
		if scheme == "https" {
			port = "443"
		} else {
			port = defaultPort
		}
	}

	// Case 1: localhost - use as-is
	if hostname == "localhost" || hostname == "127.0.0.1" {
		resolvedURL := fmt.Sprintf("%s://%s:%s", scheme, hostname, port)
		log.Infof("Using localhost service URL: %s", resolvedURL)
		return resolvedURL
	}

	// Case 2: Already an IP address - use as-is
	if ip := net.ParseIP(hostname); ip != nil {
		resolvedURL := fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(hostname, port))
		log.Infof("Using IP-based service URL: %s", resolvedURL)
		return resolvedURL
	}

	// Case 3: https keeps its hostname so certificate verification still works
	if scheme == "https" {
		return fmt.Sprintf("%s://%s:%s", scheme, hostname, port)
	}

	// Case 4: Hostname or container name - resolve via DNS
	log.Infof("Resolving hostname via DNS: %s", hostname)
	addrs, err := net.LookupIP(hostname)
	if err != nil || len(addrs) == 0 {
		log.Warnf("DNS lookup failed for '%s': %v, using hostname as-is", hostname, err)
		return fmt.Sprintf("%s://%s:%s", scheme, hostname, port)
	}

	resolvedURL := fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(addrs[0].String(), port))
	log.Infof("Resolved '%s' to %s", hostname, resolvedURL)
	return resolvedURL
}
