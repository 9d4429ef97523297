// Package errors provides domain-specific errors for the tilekit core.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrWorkspaceNotFound     = errors.New("workspace not found")
	ErrPatternNotFound       = errors.New("tiling pattern not found")
	ErrRuleNotFound          = errors.New("window rule not found")
	ErrMonitorConfigNotFound = errors.New("monitor configuration not found")
	ErrProfileNotFound       = errors.New("application profile not found")
	ErrMappingNotFound       = errors.New("keyboard mapping not found")
	ErrNameRequired          = errors.New("name required")
	ErrNameTaken             = errors.New("name already in use")
	ErrShortcutTaken         = errors.New("shortcut already registered")
	ErrShortcutReserved      = errors.New("shortcut reserved by the system")
	ErrWorkspaceActive       = errors.New("workspace already active")
	ErrSwitchInProgress      = errors.New("switch already in progress")
	ErrZeroUsableArea        = errors.New("usable area too small for tiling")
	ErrDriverTimeout         = errors.New("platform driver acknowledgment timed out")
	ErrHasDependents         = errors.New("entity has dependent records")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation ErrorCode = "VALIDATION"
	CodeConflict   ErrorCode = "CONFLICT"
	CodeNotFound   ErrorCode = "NOT_FOUND"
	CodeTiling     ErrorCode = "TILING"
	CodeDriver     ErrorCode = "DRIVER"
	CodePermission ErrorCode = "PERMISSION"
)

// TilekitError wraps errors with additional context for debugging and handling.
type TilekitError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *TilekitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *TilekitError) Unwrap() error {
	return e.Cause
}

// NewError creates a new TilekitError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *TilekitError {
	return &TilekitError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
// This allows for method chaining when adding multiple context values.
func WithContext(err *TilekitError, key string, value interface{}) *TilekitError {
	if err.Context == nil {
		err.Context = make(map[string]interface{})
	}
	err.Context[key] = value
	return err
}

// Validation creates a VALIDATION error wrapping the given cause.
func Validation(message string, cause error) *TilekitError {
	return NewError(CodeValidation, message, cause)
}

// Conflict creates a CONFLICT error carrying the id of the entity that
// already holds the contested resource. Callers decide whether to replace
// or keep both; the core never auto-resolves.
func Conflict(message, existingID string) *TilekitError {
	err := NewError(CodeConflict, message, ErrShortcutTaken)
	err.Context["existing_id"] = existingID
	return err
}

// ExistingID extracts the conflicting entity id from a CONFLICT error.
// Returns the empty string when err is not a conflict.
func ExistingID(err error) string {
	var te *TilekitError
	if errors.As(err, &te) && te.Code == CodeConflict {
		if id, ok := te.Context["existing_id"].(string); ok {
			return id
		}
	}
	return ""
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	var te *TilekitError
	return errors.As(err, &te) && te.Code == code
}

// Is reports whether err matches target using errors.Is semantics.
// This is a convenience wrapper around the standard library's errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target and sets target to that error value.
// This is a convenience wrapper around the standard library's errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
