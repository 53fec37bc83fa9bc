package settings

import (
	"fmt"
	"time"
)

// Camera facing modes
const (
	FacingUser        = "user"
	FacingEnvironment = "environment"
)

// Theme preferences
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// Processing modes
const (
	ModeSpeed    = "speed"
	ModeBalanced = "balanced"
	ModeAccuracy = "accuracy"
)

// Resolution is a requested camera frame size in pixels
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// CameraSettings holds the camera acquisition constraints
type CameraSettings struct {
	Resolution Resolution `json:"resolution"`
	FrameRate  int        `json:"frameRate"`
	FacingMode string     `json:"facingMode"`
	Mirror     bool       `json:"mirror"`
}

// RecognitionSettings holds the polling loop tunables
type RecognitionSettings struct {
	PollIntervalMs        int     `json:"pollIntervalMs"`
	ConfidenceThreshold   float64 `json:"confidenceThreshold"`
	MaxFaces              int     `json:"maxFaces"`
	ContinuousRecognition bool    `json:"continuousRecognition"`
	SaveUnknownFaces      bool    `json:"saveUnknownFaces"`
}

// PollInterval returns the poll interval as a duration
func (r RecognitionSettings) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalMs) * time.Millisecond
}

// DisplaySettings holds what the monitor surfaces show
type DisplaySettings struct {
	ShowFPS           bool   `json:"showFPS"`
	ShowBoundingBoxes bool   `json:"showBoundingBoxes"`
	ShowConfidence    bool   `json:"showConfidence"`
	ShowHistory       bool   `json:"showHistory"`
	HistoryMaxCount   int    `json:"historyMaxCount"`
	ThemePreference   string `json:"themePreference"`
}

// AlertSettings gates tones, desktop notifications and auto capture
type AlertSettings struct {
	AudioAlertsEnabled          bool `json:"audioAlertsEnabled"`
	RecognitionSoundEnabled     bool `json:"recognitionSoundEnabled"`
	UnknownFaceAlertEnabled     bool `json:"unknownFaceAlertEnabled"`
	Volume                      int  `json:"volume"`
	DesktopNotificationsEnabled bool `json:"desktopNotificationsEnabled"`
	AutoCaptureOnRecognition    bool `json:"autoCaptureOnRecognition"`
}

// AdvancedSettings holds request and processing tunables
type AdvancedSettings struct {
	ProcessingMode    string `json:"processingMode"`
	DebugMode         bool   `json:"debugMode"`
	APITimeoutSeconds int    `json:"apiTimeoutSeconds"`
	AutoRetry         bool   `json:"autoRetry"`
}

// APITimeout returns the per-request timeout
func (a AdvancedSettings) APITimeout() time.Duration {
	return time.Duration(a.APITimeoutSeconds) * time.Second
}

// Settings is the full user-adjustable configuration record
type Settings struct {
	Camera      CameraSettings      `json:"camera"`
	Recognition RecognitionSettings `json:"recognition"`
	Display     DisplaySettings     `json:"display"`
	Alerts      AlertSettings       `json:"alerts"`
	Advanced    AdvancedSettings    `json:"advanced"`
}

// DefaultSettings returns the hard-coded defaults every merge starts from
func DefaultSettings() Settings {
	return Settings{
		Camera: CameraSettings{
			Resolution: Resolution{Width: 1280, Height: 720},
			FrameRate:  30,
			FacingMode: FacingUser,
			Mirror:     true,
		},
		Recognition: RecognitionSettings{
			PollIntervalMs:        2000,
			ConfidenceThreshold:   0.6,
			MaxFaces:              3,
			ContinuousRecognition: true,
			SaveUnknownFaces:      false,
		},
		Display: DisplaySettings{
			ShowFPS:           true,
			ShowBoundingBoxes: true,
			ShowConfidence:    true,
			ShowHistory:       true,
			HistoryMaxCount:   25,
			ThemePreference:   ThemeAuto,
		},
		Alerts: AlertSettings{
			AudioAlertsEnabled:          true,
			RecognitionSoundEnabled:     true,
			UnknownFaceAlertEnabled:     false,
			Volume:                      50,
			DesktopNotificationsEnabled: false,
			AutoCaptureOnRecognition:    false,
		},
		Advanced: AdvancedSettings{
			ProcessingMode:    ModeBalanced,
			DebugMode:         false,
			APITimeoutSeconds: 10,
			AutoRetry:         true,
		},
	}
}

// Origin identifies which store operation produced a change
type Origin string

const (
	OriginLoad   Origin = "load"
	OriginSave   Origin = "save"
	OriginImport Origin = "import"
	OriginReset  Origin = "reset"
)

// Change is delivered to appliers after every store mutation
type Change struct {
	Prev    Settings
	Next    Settings
	Origin  Origin
	Changed []string
	Effects Effect
}

// Has reports whether the change touched a field carrying the given effect
func (c Change) Has(e Effect) bool {
	return c.Effects&e != 0
}

// ExportVersion is the schema version written into exported documents
const ExportVersion = "1.0"

// ExportDocument is the on-disk shape of an exported settings file
type ExportDocument struct {
	Settings   Settings `json:"settings"`
	ExportDate string   `json:"exportDate"`
	Version    string   `json:"version"`
}

// ExportFileName returns the conventional file name for an export taken at t
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("live-recognition-settings-%s.json", t.UTC().Format("2006-01-02"))
}
