package domain

import (
	"errors"
	"fmt"
)

// Code is a stable, caller-facing error code.
type Code string

const (
	CodeBoardNotFound       Code = "BOARD_NOT_FOUND"
	CodeTaskNotFound        Code = "TASK_NOT_FOUND"
	CodeCommentNotFound     Code = "COMMENT_NOT_FOUND"
	CodeSubtaskNotFound     Code = "SUBTASK_NOT_FOUND"
	CodeTimeEntryNotFound   Code = "TIME_ENTRY_NOT_FOUND"
	CodeWatcherNotFound     Code = "WATCHER_NOT_FOUND"
	CodeBoardAccessDenied   Code = "BOARD_ACCESS_DENIED"
	CodeTaskAccessDenied    Code = "TASK_ACCESS_DENIED"
	CodeValidationFailed    Code = "VALIDATION_FAILED"
	CodeInvalidColumn       Code = "INVALID_COLUMN"
	CodeInvalidColumnSet    Code = "INVALID_COLUMN_SET"
	CodeInvalidDependency   Code = "INVALID_DEPENDENCY"
	CodeAlreadyWatching     Code = "ALREADY_WATCHING"
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"
)

// Error is a coded domain error surfaced to callers unchanged; the API layer
// maps codes onto HTTP statuses.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Errf builds a coded error with a formatted message.
func Errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured context to the error and returns it.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// CodeOf extracts the domain code from err, or "" when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
