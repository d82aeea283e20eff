package retrieval

import "fmt"

// UploadError reports a failed chunk upload. Any single upload failure
// aborts the whole batch; no partial index is ever created.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// IndexCreationError reports a failure creating the vector store after all
// uploads succeeded.
type IndexCreationError struct {
	Err error
}

func (e *IndexCreationError) Error() string {
	return fmt.Sprintf("index creation failed: %v", e.Err)
}

func (e *IndexCreationError) Unwrap() error {
	return e.Err
}
