package frame

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
	log "github.com/sirupsen/logrus"
)

// Artifact name prefixes
const (
	PrefixCapture = "live-capture"
	PrefixUnknown = "unknown-face"
)

// ArtifactName returns "<prefix>-<UTC timestamp>.jpg" for t
func ArtifactName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.jpg", prefix, t.UTC().Format("20060102T150405.000Z"))
}

// Writer saves captured frames as JPEG files in one directory
type Writer struct {
	Dir string
	now func() time.Time
}

// NewWriter creates an artifact writer for dir
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, now: time.Now}
}

// Save writes img under a timestamped name and returns the file path
func (w *Writer) Save(img image.Image, prefix string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create captures directory: %w", err)
	}

	path := filepath.Join(w.Dir, ArtifactName(prefix, w.now()))
	pending, err := renameio.TempFile("", path)
	if err != nil {
		return "", fmt.Errorf("failed to create capture file: %w", err)
	}
	defer pending.Cleanup()

	if err := EncodeJPEG(pending, img, CaptureQuality); err != nil {
		return "", err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("failed to write capture file: %w", err)
	}

	log.Infof("Saved capture %s", path)
	return path, nil
}
