package downloader

import "fmt"

// NetworkError is a failure reaching a remote link: connection problems,
// unexpected HTTP statuses and truncated bodies.
type NetworkError struct {
	Op         string // "probe" or "fetch"
	Link       string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: unexpected HTTP status %d", e.Op, e.Link, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Link, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FilesystemError is a failure creating, writing or moving a local file.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
