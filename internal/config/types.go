package config

// AppConfig holds process-level configuration. User-adjustable settings
// live in the settings package; this is what the process needs before any
// settings can be loaded.
type AppConfig struct {
	Recognition RecognitionConfig `yaml:"recognition"`
	Settings    SettingsConfig    `yaml:"settings"`
	Captures    CapturesConfig    `yaml:"captures"`
	Camera      CameraConfig      `yaml:"camera"`
	Web         WebConfig         `yaml:"web"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Log         LogConfig         `yaml:"log"`
}

// RecognitionConfig locates the remote recognition endpoint
type RecognitionConfig struct {
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

// SettingsConfig locates the persisted settings record
type SettingsConfig struct {
	Path      string `yaml:"path"`
	Ephemeral bool   `yaml:"ephemeral"`
}

// CapturesConfig controls where captured frames are written
type CapturesConfig struct {
	Dir string `yaml:"dir"`
}

// Camera source kinds
const (
	SourceGStreamer = "gstreamer"
	SourceStills    = "stills"
	SourceSynthetic = "synthetic"
)

// CameraConfig selects and locates the frame source
type CameraConfig struct {
	Source     string `yaml:"source"`
	Device     string `yaml:"device"`
	RearDevice string `yaml:"rear_device"`
	StillsDir  string `yaml:"stills_dir"`
}

// WebConfig controls the HTTP control surface
type WebConfig struct {
	Listen string `yaml:"listen"`
}

// MQTTConfig controls optional result publication
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Enabled reports whether a broker is configured
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// LogConfig controls logrus output
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
