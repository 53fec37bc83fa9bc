package recognition_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/live-recognition/internal/recognition"
)

func TestClient_RecognizePostsImageData(t *testing.T) {
	var received recognition.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/recognize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "faces_detected": 3, "recognized": true, "results": [
			{"name": "Alice", "confidence": 0.92, "distance": 0.31},
			{"name": "Bob", "confidence": 0.81, "distance": 0.40},
			{"name": "Carol", "confidence": 0.75, "distance": 0.45}]}`))
	}))
	defer server.Close()

	client := recognition.NewClient(server.URL + "/api/recognize")
	result, err := client.Recognize(context.Background(), "data:image/jpeg;base64,AAAA", recognition.Options{MaxFaces: 2})

	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", received.ImageData)
	assert.Equal(t, 3, result.FacesDetected)
	assert.Equal(t, []string{"Alice", "Bob"}, result.Names())
}

func TestClient_RecognizeNonSuccessStatusIsSoftFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model warming up", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := recognition.NewClient(server.URL)
	result, err := client.Recognize(context.Background(), "data:", recognition.Options{Retry: true})

	var apiErr *recognition.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, 0, result.FacesDetected)
	assert.False(t, result.Recognized)
	assert.Empty(t, result.Matches)
	assert.Contains(t, result.Error, "API error 503")
}

func TestClient_RecognizeRetriesTransportErrorOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "faces_detected": 0, "recognized": false, "results": []}`))
	}))
	defer server.Close()

	client := recognition.NewClient(server.URL)
	result, err := client.Recognize(context.Background(), "data:", recognition.Options{Retry: true})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0, result.FacesDetected)
}

func TestClient_RecognizeWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		hj, _ := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		_ = conn.Close()
	}))
	defer server.Close()

	client := recognition.NewClient(server.URL)
	_, err := client.Recognize(context.Background(), "data:", recognition.Options{})

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RecognizeHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := recognition.NewClient(server.URL)
	start := time.Now()
	result, err := client.Recognize(ctx, "data:", recognition.Options{Retry: true})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.NotEmpty(t, result.Error)
}
