package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// TaskNotRegistered indicates a requested task name is absent from the registry
	TaskNotRegistered ErrorCode = "TASK_NOT_REGISTERED"
	// FileReadError indicates a file could not be read
	FileReadError ErrorCode = "FILE_READ_ERROR"
	// FileWriteError indicates a file could not be written
	FileWriteError ErrorCode = "FILE_WRITE_ERROR"
	// ParseError indicates the parser could not build a usable syntax tree
	ParseError ErrorCode = "PARSE_ERROR"
	// InvalidOffsetRange indicates an edit range outside the buffer or overlapping another edit
	InvalidOffsetRange ErrorCode = "INVALID_OFFSET_RANGE"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// NotARepository indicates a git repository was required but not found
	NotARepository ErrorCode = "NOT_A_REPOSITORY"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// ShiftError represents an error with a stable code, message, and suggestions
type ShiftError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewShiftError creates a new ShiftError
func NewShiftError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *ShiftError {
	return &ShiftError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// Error implements the error interface
func (e *ShiftError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ShiftError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a ShiftError carrying the same code.
func (e *ShiftError) Is(target error) bool {
	t, ok := target.(*ShiftError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds details to the error
func (e *ShiftError) WithDetails(details interface{}) *ShiftError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first ShiftError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var se *ShiftError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// HasCode reports whether err's chain contains a ShiftError with the given code.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &ShiftError{Code: code})
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	TaskNotRegistered: {
		{
			Type:        RunCommand,
			Command:     "shift run --tasks",
			Safe:        true,
			Description: "List the registered tasks",
		},
	},
	NotARepository: {
		{
			Type:        RunCommand,
			Command:     "git init",
			Safe:        false,
			Description: "Initialize a git repository",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "shift init --force",
			Safe:        false,
			Description: "Rewrite .shift/config.toml with defaults",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
