package camera

import (
	"fmt"

	"github.com/smegmarip/live-recognition/internal/config"
)

// NewAcquirer returns the frame source selected by configuration
func NewAcquirer(cfg config.CameraConfig) (Acquirer, error) {
	switch cfg.Source {
	case config.SourceGStreamer:
		return NewGStreamerSource(cfg.Device, cfg.RearDevice), nil
	case config.SourceStills:
		return NewStillsSource(cfg.StillsDir), nil
	case config.SourceSynthetic, "":
		return NewSyntheticSource(), nil
	}
	return nil, fmt.Errorf("unknown camera source %q", cfg.Source)
}
