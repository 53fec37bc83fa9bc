package testutil

import (
	"net"
	"net/url"
	"os"
	"testing"
	"time"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// RecognitionURL returns the recognition endpoint used by live tests
func RecognitionURL() string {
	return getEnvOrDefault("LIVEREC_RECOGNITION_URL", "http://localhost:8000") +
		getEnvOrDefault("LIVEREC_RECOGNITION_PATH", "/api/recognize")
}

// SkipIfNoService skips the test when running with -short or when the
// service at rawURL is unreachable
func SkipIfNoService(t *testing.T, rawURL string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping live service test in short mode")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Skipf("Invalid service URL %q: %v", rawURL, err)
	}
	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}
	conn, err := net.DialTimeout("tcp", host, 500*time.Millisecond)
	if err != nil {
		t.Skipf("Service %s not available: %v", host, err)
	}
	conn.Close()
}
