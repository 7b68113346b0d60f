package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// NoBackingStore indicates the working tree has no usable git root
	NoBackingStore ErrorCode = "NO_BACKING_STORE"
	// NoRecordSchema indicates the schema or index files are missing
	NoRecordSchema ErrorCode = "NO_RECORD_SCHEMA"
	// IOFailure indicates a canonical record or index read/write failed
	IOFailure ErrorCode = "IO_FAILURE"
	// IndexStale indicates the canonical record was written but the index was not
	IndexStale ErrorCode = "INDEX_STALE"
	// UnparsableSnapshot indicates a historical revision could not be decoded
	UnparsableSnapshot ErrorCode = "UNPARSABLE_SNAPSHOT"
	// AmbiguousGuess indicates more than one record matched an automatic guess
	AmbiguousGuess ErrorCode = "AMBIGUOUS_GUESS"
	// NoGuessFound indicates no record matched an automatic guess
	NoGuessFound ErrorCode = "NO_GUESS_FOUND"
	// RecordNotFound indicates the canonical record file does not exist
	RecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	// InvalidInput indicates caller supplied fields failed validation
	InvalidInput ErrorCode = "INVALID_INPUT"
	// BackendFailure indicates the git executable returned an error
	BackendFailure ErrorCode = "BACKEND_FAILURE"
	// Timeout indicates a git command timed out
	Timeout ErrorCode = "TIMEOUT"
	// Locked indicates another process holds the index lock
	Locked ErrorCode = "LOCKED"
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

// TrakError represents a tracker error with code, message, and suggestions
type TrakError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new TrakError. Suggested fixes registered for the code
// in ErrorActions are attached automatically.
func New(code ErrorCode, message string, cause error) *TrakError {
	return &TrakError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, cause error, format string, args ...interface{}) *TrakError {
	return New(code, fmt.Sprintf(format, args...), cause)
}

// Error implements the error interface
func (e *TrakError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TrakError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *TrakError) WithDetails(details interface{}) *TrakError {
	e.Details = details
	return e
}

// WithFixes replaces the suggested fixes
func (e *TrakError) WithFixes(fixes ...FixAction) *TrakError {
	e.SuggestedFixes = fixes
	return e
}

// CodeOf returns the code of the outermost TrakError in err's chain,
// or an empty code when there is none.
func CodeOf(err error) ErrorCode {
	var te *TrakError
	if stderrors.As(err, &te) {
		return te.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsSoft reports whether err is a local failure that must not abort the
// invocation because partial progress was already persisted.
func IsSoft(err error) bool {
	return Is(err, IndexStale)
}

// IsFatal reports whether err makes the current invocation unrecoverable.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case NoBackingStore, NoRecordSchema:
		return true
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	NoBackingStore: {
		{
			Type:        RunCommand,
			Command:     "git init",
			Safe:        false,
			Description: "Initialize a git repository",
		},
	},
	NoRecordSchema: {
		{
			Type:        RunCommand,
			Command:     "yt init",
			Safe:        true,
			Description: "Create the record schema and index",
		},
	},
	IndexStale: {
		{
			Type:        RunCommand,
			Command:     "yt reindex ${id}",
			Safe:        true,
			Description: "Re-project the canonical record into the index",
		},
	},
	AmbiguousGuess: {
		{
			Type:        RunCommand,
			Command:     "yt ${command} <id>",
			Safe:        true,
			Description: "Pass the record id explicitly",
		},
	},
	Locked: {
		{
			Type:        RunCommand,
			Command:     "sleep 2 && yt ${retry_command}",
			Safe:        true,
			Description: "Retry after the other yt process finishes",
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
