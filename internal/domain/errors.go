package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateOperation = errors.New("duplicate operation id")
)

// FieldError reports a validation failure on a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
