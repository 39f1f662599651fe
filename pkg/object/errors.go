package object

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing object.
	ErrNotFound = errors.New("not found")
	// ErrIntegrity reports stored bytes that do not form a valid object.
	ErrIntegrity = errors.New("integrity check failed")
)

// CorruptObjectError describes an object whose stored bytes could not be
// decoded into a structurally valid object.
type CorruptObjectError struct {
	Hash   Hash
	Reason string
	Err    error
}

func (e *CorruptObjectError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("object %s: %s: %s", e.Hash, ErrIntegrity, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptObjectError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *CorruptObjectError) Is(target error) bool {
	return target == ErrIntegrity
}

func corrupt(h Hash, reason string, err error) error {
	return &CorruptObjectError{Hash: h, Reason: reason, Err: err}
}
