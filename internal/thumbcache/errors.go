package thumbcache

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a photo identifier does not resolve to a
// source file, or when a thumbnail is absent from the store.
var ErrNotFound = errors.New("not found")

// IOError is a filesystem failure while reading a source photo or reading or
// writing the store.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("thumbnail cache: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// RenderError is a failure of the render function, typically a corrupt or
// unsupported image.
type RenderError struct {
	ID     string
	Digest ContentDigest
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("thumbnail cache: render %s (%s): %v", e.ID, e.Digest.Short(), e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// StartupError means the store root could not be created. It is the only
// condition that should abort startup.
type StartupError struct {
	Path string
	Err  error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("thumbnail cache: cannot create store root %s: %v", e.Path, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
