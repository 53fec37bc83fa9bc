package settings

import "strings"

// ============================================================================
// Declarative Settings Schema
// ============================================================================
//
// Every user-adjustable field is described once here. The table drives
// merge/validation in the store and is exported read-only so that any
// front end can bind its controls without per-field branching.
// ============================================================================

// Kind is the value type of a schema field
type Kind string

const (
	KindBool       Kind = "bool"
	KindInt        Kind = "int"
	KindFloat      Kind = "float"
	KindEnum       Kind = "enum"
	KindResolution Kind = "resolution"
)

// Control is the suggested input widget for a field
type Control string

const (
	ControlCheckbox Control = "checkbox"
	ControlRange    Control = "range"
	ControlNumber   Control = "number"
	ControlSelect   Control = "select"
)

// Effect is a bitmask of side effects a field change requires
type Effect uint

const (
	EffectTheme Effect = 1 << iota
	EffectMonitor
	EffectLoopTiming
	EffectCamera
	EffectNotifyPermission
	EffectHistory
	EffectDebug
)

var effectNames = []struct {
	effect Effect
	name   string
}{
	{EffectTheme, "theme"},
	{EffectMonitor, "monitor"},
	{EffectLoopTiming, "loopTiming"},
	{EffectCamera, "camera"},
	{EffectNotifyPermission, "notifyPermission"},
	{EffectHistory, "history"},
	{EffectDebug, "debug"},
}

// Names returns the effect names set in e
func (e Effect) Names() []string {
	names := []string{}
	for _, en := range effectNames {
		if e&en.effect != 0 {
			names = append(names, en.name)
		}
	}
	return names
}

func (e Effect) String() string {
	return strings.Join(e.Names(), "|")
}

// Field describes one setting
type Field struct {
	Key     string   `json:"key"`
	Legacy  string   `json:"-"`
	Kind    Kind     `json:"kind"`
	Control Control  `json:"control"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Options []string `json:"options,omitempty"`
	Effects Effect   `json:"-"`

	// ref returns a pointer into s of the field's concrete type
	ref func(s *Settings) any
}

// FieldInfo is the serializable view of a field including its default
type FieldInfo struct {
	Field
	Default any      `json:"default"`
	Effects []string `json:"effects,omitempty"`
}

// Value returns the current value of the field in s
func (f Field) Value(s Settings) any {
	switch p := f.ref(&s).(type) {
	case *bool:
		return *p
	case *int:
		return *p
	case *float64:
		return *p
	case *string:
		return *p
	case *Resolution:
		return *p
	}
	return nil
}

func (f Field) section() string {
	if i := strings.IndexByte(f.Key, '.'); i >= 0 {
		return f.Key[:i]
	}
	return ""
}

func (f Field) name() string {
	if i := strings.IndexByte(f.Key, '.'); i >= 0 {
		return f.Key[i+1:]
	}
	return f.Key
}

var schema = []Field{
	// camera
	{Key: "camera.resolution", Legacy: "cameraResolution", Kind: KindResolution, Control: ControlSelect,
		Options: []string{"640x480", "1280x720", "1920x1080"}, Effects: EffectCamera,
		ref: func(s *Settings) any { return &s.Camera.Resolution }},
	{Key: "camera.frameRate", Legacy: "frameRate", Kind: KindInt, Control: ControlSelect, Min: 1, Max: 60,
		Options: []string{"15", "24", "30", "60"}, Effects: EffectCamera,
		ref: func(s *Settings) any { return &s.Camera.FrameRate }},
	{Key: "camera.facingMode", Legacy: "cameraFacing", Kind: KindEnum, Control: ControlSelect,
		Options: []string{FacingUser, FacingEnvironment}, Effects: EffectCamera,
		ref: func(s *Settings) any { return &s.Camera.FacingMode }},
	{Key: "camera.mirror", Legacy: "mirrorVideo", Kind: KindBool, Control: ControlCheckbox, Effects: EffectMonitor,
		ref: func(s *Settings) any { return &s.Camera.Mirror }},

	// recognition
	{Key: "recognition.pollIntervalMs", Legacy: "recognitionInterval", Kind: KindInt, Control: ControlRange,
		Min: 500, Max: 10000, Step: 500, Effects: EffectLoopTiming,
		ref: func(s *Settings) any { return &s.Recognition.PollIntervalMs }},
	{Key: "recognition.confidenceThreshold", Legacy: "confidenceThreshold", Kind: KindFloat, Control: ControlRange,
		Min: 0, Max: 1, Step: 0.05,
		ref: func(s *Settings) any { return &s.Recognition.ConfidenceThreshold }},
	{Key: "recognition.maxFaces", Legacy: "maxFaces", Kind: KindInt, Control: ControlSelect, Min: 1, Max: 10,
		Options: []string{"1", "3", "5", "10"},
		ref: func(s *Settings) any { return &s.Recognition.MaxFaces }},
	{Key: "recognition.continuousRecognition", Legacy: "continuousRecognition", Kind: KindBool, Control: ControlCheckbox,
		ref: func(s *Settings) any { return &s.Recognition.ContinuousRecognition }},
	{Key: "recognition.saveUnknownFaces", Legacy: "saveUnknownFaces", Kind: KindBool, Control: ControlCheckbox,
		ref: func(s *Settings) any { return &s.Recognition.SaveUnknownFaces }},

	// display
	{Key: "display.showFPS", Legacy: "showFPS", Kind: KindBool, Control: ControlCheckbox, Effects: EffectMonitor,
		ref: func(s *Settings) any { return &s.Display.ShowFPS }},
	{Key: "display.showBoundingBoxes", Legacy: "showBoundingBoxes", Kind: KindBool, Control: ControlCheckbox, Effects: EffectMonitor,
		ref: func(s *Settings) any { return &s.Display.ShowBoundingBoxes }},
	{Key: "display.showConfidence", Legacy: "showConfidence", Kind: KindBool, Control: ControlCheckbox, Effects: EffectMonitor,
		ref: func(s *Settings) any { return &s.Display.ShowConfidence }},
	{Key: "display.showHistory", Legacy: "showRecognitionHistory", Kind: KindBool, Control: ControlCheckbox, Effects: EffectMonitor,
		ref: func(s *Settings) any { return &s.Display.ShowHistory }},
	{Key: "display.historyMaxCount", Legacy: "resultsMaxCount", Kind: KindInt, Control: ControlSelect, Min: 1, Max: 100,
		Options: []string{"10", "25", "50", "100"}, Effects: EffectHistory,
		ref: func(s *Settings) any { return &s.Display.HistoryMaxCount }},
	{Key: "display.themePreference", Legacy: "themePreference", Kind: KindEnum, Control: ControlSelect,
		Options: []string{ThemeLight, ThemeDark, ThemeAuto}, Effects: EffectTheme,
		ref: func(s *Settings) any { return &s.Display.ThemePreference }},

	// alerts
	{Key: "alerts.audioAlertsEnabled", Legacy: "audioAlerts", Kind: KindBool, Control: ControlCheckbox,
		ref: func(s *Settings) any { return &s.Alerts.AudioAlertsEnabled }},
	{Key: "alerts.recognitionSoundEnabled", Legacy: "recognitionSound", Kind: KindBool, Control: ControlCheckbox,
		ref: func(s *Settings) any { return &s.Alerts.RecognitionSoundEnabled }},
	{Key: "alerts.unknownFaceAlertEnabled", Legacy: "unknownFaceAlert", Kind: KindBool, Control: ControlCheckbox,
		ref: func(s *Settings) any { return &s.Alerts.UnknownFaceAlertEnabled }},
	{Key: "alerts.volume", Legacy: "alertVolume", Kind: KindInt, Control: ControlRange, Min: 0, Max: 100, Step: 5,
		ref: func(s *Settings) any { return &s.Alerts.Volume }},
	{Key: "alerts.desktopNotificationsEnabled", Legacy: "desktopNotifications", Kind: KindBool, Control: ControlCheckbox,
		Effects: EffectNotifyPermission,
		ref: func(s *Settings) any { return &s.Alerts.DesktopNotificationsEnabled }},
	{Key: "alerts.autoCaptureOnRecognition", Legacy: "autoCaptureOnRecognition", Kind: KindBool, Control: ControlCheckbox,
		ref: func(s *Settings) any { return &s.Alerts.AutoCaptureOnRecognition }},

	// advanced
	{Key: "advanced.processingMode", Legacy: "processingMode", Kind: KindEnum, Control: ControlSelect,
		Options: []string{ModeSpeed, ModeBalanced, ModeAccuracy},
		ref: func(s *Settings) any { return &s.Advanced.ProcessingMode }},
	{Key: "advanced.debugMode", Legacy: "debugMode", Kind: KindBool, Control: ControlCheckbox, Effects: EffectDebug,
		ref: func(s *Settings) any { return &s.Advanced.DebugMode }},
	{Key: "advanced.apiTimeoutSeconds", Legacy: "apiTimeout", Kind: KindInt, Control: ControlNumber, Min: 1, Max: 120,
		ref: func(s *Settings) any { return &s.Advanced.APITimeoutSeconds }},
	{Key: "advanced.autoRetry", Legacy: "autoRetry", Kind: KindBool, Control: ControlCheckbox,
		ref: func(s *Settings) any { return &s.Advanced.AutoRetry }},
}

// Schema returns a copy of the field table
func Schema() []Field {
	out := make([]Field, len(schema))
	copy(out, schema)
	return out
}

// SchemaInfo returns the field table with defaults, suitable for serving
func SchemaInfo() []FieldInfo {
	defaults := DefaultSettings()
	info := make([]FieldInfo, 0, len(schema))
	for _, f := range schema {
		info = append(info, FieldInfo{Field: f, Default: f.Value(defaults), Effects: f.Effects.Names()})
	}
	return info
}

// Lookup returns the schema field for a dotted key
func Lookup(key string) (Field, bool) {
	for _, f := range schema {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Diff lists the keys whose values differ between a and b and the union of
// their effects
func Diff(a, b Settings) ([]string, Effect) {
	var (
		keys    []string
		effects Effect
	)
	for _, f := range schema {
		if f.Value(a) != f.Value(b) {
			keys = append(keys, f.Key)
			effects |= f.Effects
		}
	}
	return keys, effects
}
