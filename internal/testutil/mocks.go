package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/smegmarip/live-recognition/internal/alert"
	"github.com/smegmarip/live-recognition/internal/recognition"
)

// MockRecognizer is a mock implementation of the recognition client
type MockRecognizer struct {
	mock.Mock
}

// Recognize mocks one recognition call
func (m *MockRecognizer) Recognize(ctx context.Context, imageData string, opts recognition.Options) (recognition.Result, error) {
	args := m.Called(ctx, imageData, opts)
	return args.Get(0).(recognition.Result), args.Error(1)
}

// MockSpeaker is a mock implementation of alert.Speaker
type MockSpeaker struct {
	mock.Mock
}

// Play mocks tone playback
func (m *MockSpeaker) Play(ctx context.Context, t alert.Tone) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockNotifier is a mock implementation of alert.Notifier
type MockNotifier struct {
	mock.Mock
}

// Permission mocks the permission query
func (m *MockNotifier) Permission() alert.Permission {
	args := m.Called()
	return args.Get(0).(alert.Permission)
}

// RequestPermission mocks the permission prompt
func (m *MockNotifier) RequestPermission(ctx context.Context) (alert.Permission, error) {
	args := m.Called(ctx)
	return args.Get(0).(alert.Permission), args.Error(1)
}

// Notify mocks showing a desktop notification
func (m *MockNotifier) Notify(title, body, icon string) error {
	args := m.Called(title, body, icon)
	return args.Error(0)
}
