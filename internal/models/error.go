package models

// ValidationError reports participant input that was rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError wraps msg in a ValidationError.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
