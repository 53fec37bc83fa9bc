package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// ============================================================================
// Recognition HTTP Client
// ============================================================================

// maxResponseBytes caps how much of a response body is read
const maxResponseBytes = 4 << 20

// NewClient creates a new recognition client for the given endpoint URL.
// Per-request deadlines come from the caller's context.
func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Recognize sends one encoded frame to the endpoint.
// POST {endpoint} {"image_data": "data:image/jpeg;base64,..."}
//
// The returned Result is always normalized. Transport failures, non-2xx
// statuses, malformed bodies and unsuccessful responses return a soft
// failure Result together with an *APIError.
func (c *Client) Recognize(ctx context.Context, imageData string, opts Options) (Result, error) {
	body, err := json.Marshal(Request{ImageData: imageData})
	if err != nil {
		return SoftFailure("failed to encode request"), &APIError{Message: "failed to marshal request", Err: err}
	}

	respBody, status, err := c.post(ctx, body)
	if err != nil && opts.Retry && retryable(ctx, err) {
		log.Debugf("Recognize: retrying after transport error: %v", err)
		respBody, status, err = c.post(ctx, body)
	}
	if err != nil {
		return SoftFailure(err.Error()), &APIError{Message: "failed to send request", Err: err}
	}

	if status < 200 || status > 299 {
		msg := string(bytes.TrimSpace(respBody))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		apiErr := &APIError{StatusCode: status, Message: msg}
		return SoftFailure(apiErr.Error()), apiErr
	}

	result, err := Normalize(respBody)
	if err != nil {
		return result, err
	}
	if opts.MaxFaces > 0 && len(result.Matches) > opts.MaxFaces {
		result.Matches = result.Matches[:opts.MaxFaces]
	}

	log.Debugf("Recognize: %d face(s), recognized=%t, %d match(es)", result.FacesDetected, result.Recognized, len(result.Matches))
	return result, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Tracef("Recognize: POST %s", c.Endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// retryable reports whether a transport error is worth one more attempt.
// Caller cancellation and deadline expiry are not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
