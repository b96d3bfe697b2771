package services

import (
	"fmt"

	"github.com/dmitrijs2005/cmcs/internal/common"
)

// ValidationError is a rejection caused by user input. Message is safe to
// show to the user; errors.Is(err, common.ErrorValidation) holds.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return common.ErrorValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
