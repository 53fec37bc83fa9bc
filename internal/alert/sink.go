package alert

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/settings"
)

// playTimeout bounds one playback so a wedged player cannot pile up
const playTimeout = 2 * time.Second

// Sink dispatches tones and desktop notifications. Every call returns
// immediately; delivery happens on a separate goroutine and failures are
// only logged.
type Sink struct {
	speaker  Speaker
	notifier Notifier
	wg       sync.WaitGroup
}

// NewSink creates a sink. A nil speaker or notifier disables that channel.
func NewSink(speaker Speaker, notifier Notifier) *Sink {
	if speaker == nil {
		speaker = NopSpeaker{}
	}
	return &Sink{speaker: speaker, notifier: notifier}
}

// Notifier returns the desktop notifier, which may be nil
func (s *Sink) Notifier() Notifier {
	return s.notifier
}

// Play fires the tone for kind when audio alerts and the kind's own toggle
// are both enabled. It reports whether a tone was dispatched.
func (s *Sink) Play(kind Kind, a settings.AlertSettings) bool {
	if !a.AudioAlertsEnabled {
		return false
	}
	switch kind {
	case KindRecognition:
		if !a.RecognitionSoundEnabled {
			return false
		}
	case KindUnknown:
		if !a.UnknownFaceAlertEnabled {
			return false
		}
	default:
		return false
	}
	tone, ok := ToneFor(kind, a.Volume)
	if !ok {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Warnf("Audio alert panicked: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
		defer cancel()
		if err := s.speaker.Play(ctx, tone); err != nil {
			log.Debugf("Audio alert unavailable: %v", err)
		}
	}()
	return true
}

// Notify shows a desktop notification when enabled in settings and the
// OS permission is already granted. It reports whether one was dispatched.
func (s *Sink) Notify(title, body, icon string, a settings.AlertSettings) bool {
	if !a.DesktopNotificationsEnabled || s.notifier == nil {
		return false
	}
	if s.notifier.Permission() != PermissionGranted {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Warnf("Desktop notification panicked: %v", r)
			}
		}()
		if err := s.notifier.Notify(title, body, icon); err != nil {
			log.Debugf("Desktop notification failed: %v", err)
		}
	}()
	return true
}

// NotifyRecognized notifies about recognized names
func (s *Sink) NotifyRecognized(names []string, a settings.AlertSettings) bool {
	return s.Notify("Face Recognition", "Recognized: "+strings.Join(names, ", "), "face-icon", a)
}

// NotifyUnknown notifies about unknown faces; it also requires the
// unknown-face alert toggle
func (s *Sink) NotifyUnknown(faces int, a settings.AlertSettings) bool {
	if !a.UnknownFaceAlertEnabled {
		return false
	}
	return s.Notify("Unknown Face Detected", fmt.Sprintf("%d unknown face(s) detected", faces), "unknown-icon", a)
}

// Wait blocks until every dispatched alert has finished
func (s *Sink) Wait() {
	s.wg.Wait()
}
