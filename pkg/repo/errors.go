package repo

import (
	"errors"

	"github.com/odvcencio/nvcs/pkg/object"
)

var (
	// ErrNotFound marks a missing ref, branch, index entry or object. It is
	// the same value as object.ErrNotFound so callers need only one check.
	ErrNotFound = object.ErrNotFound
	// ErrAlreadyExists marks a name collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidState marks an operation the repository state does not allow.
	ErrInvalidState = errors.New("invalid state")
)
