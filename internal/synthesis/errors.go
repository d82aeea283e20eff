package synthesis

import "fmt"

// SchemaViolationError indicates the model's output failed to parse or
// validate against the block schema. Terminal: there is no automatic
// retry or repair pass.
type SchemaViolationError struct {
	Reason string
	Err    error
}

func (e *SchemaViolationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model output rejected: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("model output rejected: %s", e.Reason)
}

func (e *SchemaViolationError) Unwrap() error {
	return e.Err
}
