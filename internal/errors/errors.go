package errors

import "fmt"

// ErrorCode represents a carryover error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrUnknownTool    ErrorCode = "UNKNOWN_TOOL"    // 404
	ErrIOFailure      ErrorCode = "IO_FAILURE"      // 500
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// CarryError represents a structured error with code, status, and details.
type CarryError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *CarryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CarryError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CarryError {
	return &CarryError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing document (log, handover, inbox).
func NewNotFound(what string) *CarryError {
	return &CarryError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", what),
		Details: map[string]any{"identifier": what},
	}
}

// NewUnknownTool creates a 404 error for names missing from the MCP tool registry.
func NewUnknownTool(name string) *CarryError {
	return &CarryError{
		Code:    ErrUnknownTool,
		Status:  404,
		Message: fmt.Sprintf("unknown tool: %s", name),
		Details: map[string]any{"tool": name},
	}
}

// NewIOFailure creates a 500 error for a failed read or write under the shared root.
func NewIOFailure(op, path string, err error) *CarryError {
	msg := fmt.Sprintf("%s %s", op, path)
	if err != nil {
		msg = fmt.Sprintf("%s %s: %v", op, path, err)
	}
	return &CarryError{
		Code:    ErrIOFailure,
		Status:  500,
		Message: msg,
		Details: map[string]any{"op": op, "path": path},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CarryError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CarryError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is a CarryError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CarryError); ok {
		return cErr.Code == code
	}
	return false
}
