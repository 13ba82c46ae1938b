package source

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the site or embed does not have the requested media.
	ErrNotFound = errors.New("not found")
	// ErrMalformed means a page or API response did not have the expected shape.
	ErrMalformed = errors.New("malformed response")
	// ErrUnsupported means the driver cannot handle the request at all.
	ErrUnsupported = errors.New("unsupported")
)

// NotFound returns an error wrapping ErrNotFound.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Malformed returns an error wrapping ErrMalformed.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformed)
}

// IsNotFound reports whether err means "this site doesn't have it".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
