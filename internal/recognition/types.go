package recognition

import (
	"fmt"
	"net/http"

	"github.com/smegmarip/live-recognition/pkg/utils"
)

// Client is a client for the remote recognition endpoint
type Client struct {
	Endpoint   string
	httpClient *http.Client
}

// Options tune a single Recognize call
type Options struct {
	// MaxFaces truncates the normalized matches; zero means no limit
	MaxFaces int
	// Retry re-sends once after a transport failure
	Retry bool
}

// Request is the JSON body sent to the endpoint
type Request struct {
	ImageData string `json:"image_data"`
}

// Match is one recognized identity. Box is present only when the service
// reports a face location.
type Match struct {
	Name       string             `json:"name"`
	Confidence float64            `json:"confidence"`
	Distance   float64            `json:"distance"`
	Box        *utils.BoundingBox `json:"box,omitempty"`
}

// Result is a normalized recognition outcome. Every field is always
// populated; Matches is never nil.
type Result struct {
	FacesDetected int     `json:"facesDetected"`
	Recognized    bool    `json:"recognized"`
	Matches       []Match `json:"matches"`
	Error         string  `json:"error,omitempty"`
}

// Names returns the matched names in API order
func (r Result) Names() []string {
	names := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		names = append(names, m.Name)
	}
	return names
}

// SoftFailure returns the normalized result used when a tick fails
func SoftFailure(msg string) Result {
	return Result{Matches: []Match{}, Error: msg}
}

// APIError is a per-tick network or API failure. It never stops the
// polling loop.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }
