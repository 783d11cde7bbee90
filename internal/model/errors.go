package model

import "errors"

// Domain errors. Handlers map these to user-facing responses: quota and
// validation failures become blocking messages, insufficient questions
// becomes a retry invitation, not-found degrades to a redirect.
var (
	ErrQuotaExceeded         = errors.New("daily generation quota exceeded")
	ErrInsufficientQuestions = errors.New("not enough valid questions generated")
	ErrNotFound              = errors.New("not found")
	ErrUnknownPlan           = errors.New("unknown plan")
	ErrExplanationMissing    = errors.New("explanation not generated yet")
)

// ValidationError is malformed user input. MsgID is a translation key
// resolved by the handler layer.
type ValidationError struct {
	MsgID string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.MsgID
}

// NewValidationError creates a ValidationError for the given message ID.
func NewValidationError(msgID string) *ValidationError {
	return &ValidationError{MsgID: msgID}
}
