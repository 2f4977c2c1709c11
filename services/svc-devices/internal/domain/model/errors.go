package model

import "errors"

var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrInvalidDeviceID    = errors.New("invalid device ID")
	ErrInvalidState       = errors.New("invalid device state")
	ErrDuplicateDevice    = errors.New("device already exists")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrInvalidSort        = errors.New("invalid sort")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}

	return v.Errors[0].Message
}

// Unwrap lets callers match validation failures with ErrInvalidFilter.
func (v *ValidationErrors) Unwrap() error {
	return ErrInvalidFilter
}

func (v *ValidationErrors) Add(field, message, code string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
		Code:    code,
	})
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}
