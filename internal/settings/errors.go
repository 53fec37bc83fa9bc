package settings

import "fmt"

// ImportFormatError is returned when an import payload does not carry a
// recognizable settings object. Current settings are left untouched.
type ImportFormatError struct {
	Reason string
	Err    error
}

func (e *ImportFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid settings import: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid settings import: %s", e.Reason)
}

func (e *ImportFormatError) Unwrap() error { return e.Err }

// PersistenceError wraps a storage read or write failure. The store keeps
// working from memory when one occurs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("settings %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
