package parsing

import (
	"errors"
	"fmt"
)

// ErrExtractionInvalid marks a structured extraction whose output failed
// validation or was unusable for the requested domain
var ErrExtractionInvalid = errors.New("extraction invalid")

// ExtractionError describes why an extraction result was rejected
type ExtractionError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Is reports ExtractionError as ErrExtractionInvalid
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionInvalid
}

func invalid(stage, message string, cause error) *ExtractionError {
	return &ExtractionError{Stage: stage, Message: message, Cause: cause}
}
