package alert

import (
	"context"
	"errors"
	"sync"

	"github.com/gen2brain/beeep"
)

// Permission is the OS-level desktop notification permission state
type Permission string

const (
	PermissionUndetermined Permission = "undetermined"
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
)

// ErrNotPermitted is returned when notifying without granted permission
var ErrNotPermitted = errors.New("desktop notifications not permitted")

// Notifier shows OS desktop notifications
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(title, body, icon string) error
}

// DesktopNotifier delivers notifications through the platform notification
// service. Permission is granted once a probe notification is accepted by
// the service and denied when it is rejected.
type DesktopNotifier struct {
	mu     sync.Mutex
	perm   Permission
	notify func(title, body, icon string) error
}

// NewDesktopNotifier creates a notifier in the undetermined state
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{perm: PermissionUndetermined, notify: beeep.Notify}
}

func (d *DesktopNotifier) Permission() Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.perm
}

func (d *DesktopNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	d.mu.Lock()
	perm := d.perm
	d.mu.Unlock()
	if perm != PermissionUndetermined {
		return perm, nil
	}

	errc := make(chan error, 1)
	go func() { errc <- d.notify("Live Recognition", "Desktop notifications enabled", "") }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		return PermissionUndetermined, ctx.Err()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.perm = PermissionDenied
	} else {
		d.perm = PermissionGranted
	}
	return d.perm, err
}

func (d *DesktopNotifier) Notify(title, body, icon string) error {
	if d.Permission() != PermissionGranted {
		return ErrNotPermitted
	}
	return d.notify(title, body, icon)
}
