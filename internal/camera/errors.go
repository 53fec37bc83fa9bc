package camera

import (
	"errors"
	"fmt"
	"io/fs"
)

// AccessError means permission to use the camera was refused
type AccessError struct {
	Device string
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("camera access denied for %s: %v", e.Device, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// NotFoundError means no matching camera device exists
type NotFoundError struct {
	Device string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no camera found at %s: %v", e.Device, e.Err)
	}
	return fmt.Sprintf("no camera found at %s", e.Device)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Error is any other acquisition failure
type Error struct {
	Device string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("camera error on %s: %v", e.Device, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps an acquisition failure on device to one of the camera
// error types. Errors that are already classified are returned unchanged.
func Classify(device string, err error) error {
	if err == nil {
		return nil
	}
	var (
		accessErr   *AccessError
		notFoundErr *NotFoundError
		camErr      *Error
	)
	switch {
	case errors.As(err, &accessErr), errors.As(err, &notFoundErr), errors.As(err, &camErr):
		return err
	case errors.Is(err, fs.ErrPermission):
		return &AccessError{Device: device, Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return &NotFoundError{Device: device, Err: err}
	}
	return &Error{Device: device, Err: err}
}

// UserMessage returns the short text shown to the user for a camera error
func UserMessage(err error) string {
	var (
		accessErr   *AccessError
		notFoundErr *NotFoundError
	)
	switch {
	case errors.As(err, &accessErr):
		return "Camera access denied. Please allow camera permissions and try again."
	case errors.As(err, &notFoundErr):
		return "No camera found. Please connect a camera and try again."
	}
	return "Failed to start camera: " + err.Error()
}
