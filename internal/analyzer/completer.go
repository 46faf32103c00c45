package analyzer

import (
	"context"
	"fmt"
)

// Request is one "complete this prompt" call to the external service.
// OutputSchema, when set, asks for structured JSON matching the schema.
type Request struct {
	Prompt       string
	OutputSchema map[string]any
}

// Completer is the single capability the pipeline needs from the outside
// world. Implementations block until the service responds or ctx is done.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ServiceError marks a failed completion call with the pipeline stage that
// issued it, so run-level errors always name where they came from.
type ServiceError struct {
	Stage string
	Err   error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: completion request failed: %v", e.Stage, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
