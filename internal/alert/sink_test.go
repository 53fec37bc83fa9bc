package alert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/smegmarip/live-recognition/internal/alert"
	"github.com/smegmarip/live-recognition/internal/settings"
	"github.com/smegmarip/live-recognition/internal/testutil"
)

func alertsOn() settings.AlertSettings {
	return settings.AlertSettings{
		AudioAlertsEnabled:          true,
		RecognitionSoundEnabled:     true,
		UnknownFaceAlertEnabled:     true,
		DesktopNotificationsEnabled: true,
		Volume:                      50,
	}
}

func TestSink_Play(t *testing.T) {
	tests := []struct {
		name   string
		kind   alert.Kind
		modify func(a *settings.AlertSettings)
		played bool
	}{
		{name: "recognition enabled", kind: alert.KindRecognition, played: true},
		{name: "unknown enabled", kind: alert.KindUnknown, played: true},
		{
			name:   "audio master off",
			kind:   alert.KindRecognition,
			modify: func(a *settings.AlertSettings) { a.AudioAlertsEnabled = false },
		},
		{
			name:   "recognition sound off",
			kind:   alert.KindRecognition,
			modify: func(a *settings.AlertSettings) { a.RecognitionSoundEnabled = false },
		},
		{
			name:   "unknown alert off",
			kind:   alert.KindUnknown,
			modify: func(a *settings.AlertSettings) { a.UnknownFaceAlertEnabled = false },
		},
		{
			name:   "recognition sound off does not gate unknown",
			kind:   alert.KindUnknown,
			modify: func(a *settings.AlertSettings) { a.RecognitionSoundEnabled = false },
			played: true,
		},
		{name: "unknown kind", kind: alert.Kind("siren")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			speaker := new(testutil.MockSpeaker)
			speaker.On("Play", mock.Anything, mock.MatchedBy(func(tone alert.Tone) bool {
				return tone.Kind == tt.kind && tone.Gain == 0.5
			})).Return(nil)

			a := alertsOn()
			if tt.modify != nil {
				tt.modify(&a)
			}
			sink := alert.NewSink(speaker, nil)
			assert.Equal(t, tt.played, sink.Play(tt.kind, a))
			sink.Wait()

			if tt.played {
				speaker.AssertNumberOfCalls(t, "Play", 1)
			} else {
				speaker.AssertNotCalled(t, "Play", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSink_PlayPanicIsContained(t *testing.T) {
	speaker := new(testutil.MockSpeaker)
	speaker.On("Play", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("audio device exploded")
	})

	sink := alert.NewSink(speaker, nil)
	assert.True(t, sink.Play(alert.KindUnknown, alertsOn()))
	assert.NotPanics(t, sink.Wait)
}

func TestSink_NotifyRecognized(t *testing.T) {
	notifier := new(testutil.MockNotifier)
	notifier.On("Permission").Return(alert.PermissionGranted)
	notifier.On("Notify", "Face Recognition", "Recognized: Alice, Bob", "face-icon").Return(nil)

	sink := alert.NewSink(nil, notifier)
	assert.True(t, sink.NotifyRecognized([]string{"Alice", "Bob"}, alertsOn()))
	sink.Wait()
	notifier.AssertExpectations(t)
}

func TestSink_NotifyUnknown(t *testing.T) {
	notifier := new(testutil.MockNotifier)
	notifier.On("Permission").Return(alert.PermissionGranted)
	notifier.On("Notify", "Unknown Face Detected", "2 unknown face(s) detected", "unknown-icon").Return(nil)

	sink := alert.NewSink(nil, notifier)
	assert.True(t, sink.NotifyUnknown(2, alertsOn()))
	sink.Wait()
	notifier.AssertExpectations(t)
}

func TestSink_NotifyGating(t *testing.T) {
	tests := []struct {
		name       string
		permission alert.Permission
		modify     func(a *settings.AlertSettings)
		unknown    bool
	}{
		{
			name:       "desktop notifications off",
			permission: alert.PermissionGranted,
			modify:     func(a *settings.AlertSettings) { a.DesktopNotificationsEnabled = false },
		},
		{name: "permission undetermined", permission: alert.PermissionUndetermined},
		{name: "permission denied", permission: alert.PermissionDenied},
		{
			name:       "unknown face alert off",
			permission: alert.PermissionGranted,
			modify:     func(a *settings.AlertSettings) { a.UnknownFaceAlertEnabled = false },
			unknown:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := new(testutil.MockNotifier)
			notifier.On("Permission").Return(tt.permission)

			a := alertsOn()
			if tt.modify != nil {
				tt.modify(&a)
			}
			sink := alert.NewSink(nil, notifier)
			var sent bool
			if tt.unknown {
				sent = sink.NotifyUnknown(1, a)
			} else {
				sent = sink.NotifyRecognized([]string{"Alice"}, a)
			}
			sink.Wait()
			assert.False(t, sent)
			notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSink_NilNotifier(t *testing.T) {
	sink := alert.NewSink(nil, nil)
	assert.Nil(t, sink.Notifier())
	assert.False(t, sink.NotifyRecognized([]string{"Alice"}, alertsOn()))
}
