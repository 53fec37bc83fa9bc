package recognition

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/smegmarip/live-recognition/pkg/utils"
)

// UnknownName is used for matches the service returns without a name
const UnknownName = "Unknown"

// rawResponse defers decoding of every field so one wrong type never fails
// the whole payload
type rawResponse struct {
	Success       json.RawMessage `json:"success"`
	FacesDetected json.RawMessage `json:"faces_detected"`
	Recognized    json.RawMessage `json:"recognized"`
	Results       json.RawMessage `json:"results"`
	Error         json.RawMessage `json:"error"`
}

type rawMatch struct {
	Name       json.RawMessage `json:"name"`
	Confidence json.RawMessage `json:"confidence"`
	Distance   json.RawMessage `json:"distance"`
	Location   json.RawMessage `json:"location"`
	Box        json.RawMessage `json:"box"`
}

// Normalize decodes a response body into a Result. It never fails: a body
// that is not a JSON object, or whose success flag is not true, becomes a
// soft failure result and a non-nil *APIError describing why.
func Normalize(body []byte) (Result, error) {
	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return SoftFailure("malformed response"), &APIError{Message: "failed to parse response", Err: err}
	}

	if !decodeBool(raw.Success) {
		msg := decodeString(raw.Error)
		if msg == "" {
			msg = "recognition unsuccessful"
		}
		return SoftFailure(msg), &APIError{Message: msg}
	}

	result := Result{
		FacesDetected: decodeCount(raw.FacesDetected),
		Recognized:    decodeBool(raw.Recognized),
		Matches:       decodeMatches(raw.Results),
		Error:         decodeString(raw.Error),
	}
	return result, nil
}

func decodeMatches(data json.RawMessage) []Match {
	matches := []Match{}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return matches
	}
	for _, item := range items {
		var rm rawMatch
		if err := json.Unmarshal(item, &rm); err != nil {
			continue
		}
		name := strings.TrimSpace(decodeString(rm.Name))
		if name == "" {
			name = UnknownName
		}
		m := Match{
			Name:       name,
			Confidence: clamp01(decodeFloat(rm.Confidence)),
			Distance:   math.Max(0, decodeFloat(rm.Distance)),
		}
		if box, ok := decodeBox(rm); ok {
			m.Box = &box
		}
		matches = append(matches, m)
	}
	return matches
}

// minBoxSize is the smallest face box, in pixels per side, worth drawing
const minBoxSize = 1

func decodeBox(rm rawMatch) (utils.BoundingBox, bool) {
	var loc []float64
	if err := json.Unmarshal(rm.Location, &loc); err == nil {
		if box, ok := utils.BoxFromLocation(loc); ok && utils.IsFaceSizeValid(box, minBoxSize) {
			return box, true
		}
	}
	var box utils.BoundingBox
	if len(rm.Box) > 0 && json.Unmarshal(rm.Box, &box) == nil {
		if utils.IsFaceSizeValid(box, minBoxSize) {
			return box, true
		}
	}
	return utils.BoundingBox{}, false
}

func decodeBool(data json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return false
	}
	return b
}

func decodeString(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s
}

func decodeFloat(data json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func decodeCount(data json.RawMessage) int {
	f := decodeFloat(data)
	if f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func clamp01(f float64) float64 {
	return math.Min(1, math.Max(0, f))
}
