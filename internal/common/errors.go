package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
	ErrDatabase          = errors.New("database error")
	ErrValidation        = errors.New("validation failed")
	ErrDocumentOpen      = errors.New("document could not be opened")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// DocumentOpenError marks a document-fatal failure; the batch records it and moves on.
func DocumentOpenError(path string, cause error) error {
	return &AppError{
		Code:    "DOCUMENT_OPEN",
		Message: path,
		Cause:   errors.Join(ErrDocumentOpen, cause),
	}
}

// IsDocumentOpen reports whether err is a document-fatal open failure.
func IsDocumentOpen(err error) bool {
	return errors.Is(err, ErrDocumentOpen)
}

// ErrorCode returns the AppError code in err's chain, or "" when there is none.
func ErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
