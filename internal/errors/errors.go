package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Spark error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400 (validation errors)
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound       ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrPayloadTooLarge    ErrorCode = "PAYLOAD_TOO_LARGE"   // 413
	ErrUnrecognizedFormat ErrorCode = "UNRECOGNIZED_FORMAT" // 422
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// SparkError represents a structured error with code, status, and details.
type SparkError struct {
	Code    ErrorCode
	Status  int
	Message string
	Field   string
	Details map[string]any
}

// Error implements the error interface.
func (e *SparkError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SparkError {
	return &SparkError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewValidation creates a 400 error naming the offending field.
func NewValidation(field, msg string) *SparkError {
	return &SparkError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
		Field:   field,
		Details: map[string]any{"field": field},
	}
}

// NewNotFound creates a 404 error for a missing folder or snippet.
func NewNotFound(resource, id string) *SparkError {
	return &SparkError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *SparkError {
	return &SparkError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewPayloadTooLarge creates a 413 error when an import payload exceeds the ceiling.
func NewPayloadTooLarge(max, actual int) *SparkError {
	return &SparkError{
		Code:    ErrPayloadTooLarge,
		Status:  413,
		Message: fmt.Sprintf("payload exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewUnrecognizedFormat creates a 422 error when no import detector accepts the payload.
func NewUnrecognizedFormat(msg string) *SparkError {
	return &SparkError{
		Code:    ErrUnrecognizedFormat,
		Status:  422,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SparkError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SparkError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a SparkError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SparkError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As extracts the SparkError from err, if any.
func As(err error) (*SparkError, bool) {
	var sErr *SparkError
	ok := stderrors.As(err, &sErr)
	return sErr, ok
}
