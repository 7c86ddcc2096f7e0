package manifest

import (
	"errors"
	"fmt"
)

// ErrNoSuffixes is returned when parsing is requested without any suffix.
var ErrNoSuffixes = errors.New("manifest: at least one suffix is required")

// NotFoundError reports a manifest that is missing or cannot be read.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("manifest %s not found or unreadable: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
