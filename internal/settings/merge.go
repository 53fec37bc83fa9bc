package settings

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Merge overlays raw (a decoded JSON object) onto base and returns the result.
//
// Fields absent from raw keep the base value. Fields that are present but
// malformed fall back to the default value. Numeric values outside the
// field's range are clamped to the nearest bound. Merge never fails; the
// returned slice lists the keys that fell back to defaults.
func Merge(base Settings, raw map[string]any) (Settings, []string) {
	out := base
	defaults := DefaultSettings()
	var fallbacks []string

	for _, f := range schema {
		v, present, sectionOK := lookupRaw(raw, f)
		if !sectionOK {
			assign(f, &out, f.Value(defaults))
			fallbacks = append(fallbacks, f.Key)
			continue
		}
		if !present {
			continue
		}
		coerced, ok := coerce(f, v)
		if !ok {
			coerced = f.Value(defaults)
			fallbacks = append(fallbacks, f.Key)
		}
		assign(f, &out, coerced)
	}
	return out, fallbacks
}

// Normalize re-validates every field of s, clamping numbers and replacing
// invalid enum members with defaults.
func Normalize(s Settings) (Settings, []string) {
	raw, err := toRaw(s)
	if err != nil {
		return DefaultSettings(), nil
	}
	return Merge(DefaultSettings(), raw)
}

func toRaw(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// lookupRaw finds the value for f in raw, preferring the nested section
// layout and falling back to the flat legacy key. sectionOK is false when
// the section exists but is not an object.
func lookupRaw(raw map[string]any, f Field) (v any, present bool, sectionOK bool) {
	if sec, ok := raw[f.section()]; ok && sec != nil {
		m, isMap := sec.(map[string]any)
		if !isMap {
			return nil, false, false
		}
		if v, ok := m[f.name()]; ok {
			return v, true, true
		}
	}
	if f.Legacy != "" {
		if v, ok := raw[f.Legacy]; ok {
			return v, true, true
		}
	}
	return nil, false, true
}

func assign(f Field, s *Settings, v any) {
	switch p := f.ref(s).(type) {
	case *bool:
		*p = v.(bool)
	case *int:
		*p = v.(int)
	case *float64:
		*p = v.(float64)
	case *string:
		*p = v.(string)
	case *Resolution:
		*p = v.(Resolution)
	}
}

func coerce(f Field, v any) (any, bool) {
	switch f.Kind {
	case KindBool:
		return coerceBool(v)
	case KindInt:
		n, ok := coerceNumber(v)
		if !ok {
			return nil, false
		}
		return int(math.Round(f.clamp(n))), true
	case KindFloat:
		n, ok := coerceNumber(v)
		if !ok {
			return nil, false
		}
		return f.clamp(n), true
	case KindEnum:
		str, ok := v.(string)
		if !ok {
			return nil, false
		}
		str = strings.ToLower(strings.TrimSpace(str))
		for _, opt := range f.Options {
			if str == opt {
				return opt, true
			}
		}
		return nil, false
	case KindResolution:
		return coerceResolution(v)
	}
	return nil, false
}

func (f Field) clamp(n float64) float64 {
	if f.Min == 0 && f.Max == 0 {
		return n
	}
	if n < f.Min {
		return f.Min
	}
	if n > f.Max {
		return f.Max
	}
	return n
}

func coerceBool(v any) (any, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "on", "yes":
			return true, true
		case "false", "0", "off", "no":
			return false, true
		}
	}
	return nil, false
}

func coerceNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

const maxDimension = 7680

func coerceResolution(v any) (any, bool) {
	var w, h float64
	switch r := v.(type) {
	case map[string]any:
		var okW, okH bool
		w, okW = coerceNumber(r["width"])
		h, okH = coerceNumber(r["height"])
		if !okW || !okH {
			return nil, false
		}
	case string:
		ws, hs, found := strings.Cut(strings.ToLower(strings.TrimSpace(r)), "x")
		if !found {
			return nil, false
		}
		var okW, okH bool
		w, okW = coerceNumber(ws)
		h, okH = coerceNumber(hs)
		if !okW || !okH {
			return nil, false
		}
	default:
		return nil, false
	}
	if w < 1 || h < 1 || w > maxDimension || h > maxDimension {
		return nil, false
	}
	return Resolution{Width: int(math.Round(w)), Height: int(math.Round(h))}, true
}
