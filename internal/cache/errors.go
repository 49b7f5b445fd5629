package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers every read failure: absent, unreadable or undecodable
	ErrUnavailable = errors.New("cache unavailable")
	// ErrWriteFailed covers every failure to replace the cache file
	ErrWriteFailed = errors.New("cache write failed")
	// ErrInvalidKey is returned for an account or region that cannot name a cache file
	ErrInvalidKey = errors.New("invalid cache key")
)

// Error carries the kind of failure, the file involved and the underlying cause.
// errors.Is matches both the kind and the cause, so callers can tell a missing
// file (fs.ErrNotExist) from a corrupt one for diagnostics.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func unavailable(path string, err error) error {
	return &Error{Kind: ErrUnavailable, Path: path, Err: err}
}

func writeFailed(path string, err error) error {
	return &Error{Kind: ErrWriteFailed, Path: path, Err: err}
}
