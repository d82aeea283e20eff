package storage

import "fmt"

// NotFoundError indicates no document is stored at the requested path. The
// backend reports missing paths as a lookup conflict; this normalizes that.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.Path)
}

// TransientError wraps any other storage backend failure. The caller may
// retry the whole call; there is no partial state to recover.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
