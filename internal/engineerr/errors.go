// Package engineerr defines the engine's external-facing error codes
// (spec §6) using the sentinel-plus-wrapper style the rest of the stack
// uses (see internal/domain/errors.go), rather than ad-hoc string errors.
package engineerr

import "fmt"

// Code is one of the engine's external-facing error codes.
type Code string

const (
	WorkflowNotFound      Code = "WORKFLOW_NOT_FOUND"
	WorkflowDisabled      Code = "WORKFLOW_DISABLED"
	NoTriggerNode         Code = "NO_TRIGGER_NODE"
	NodeNotFound          Code = "NODE_NOT_FOUND"
	UnknownNodeType       Code = "UNKNOWN_NODE_TYPE"
	ProviderNotConfigured Code = "PROVIDER_NOT_CONFIGURED"
	CircularSubWorkflow   Code = "CIRCULAR_SUB_WORKFLOW"
	AttemptsExhausted     Code = "ATTEMPTS_EXHAUSTED"
	CycleLimitExceeded    Code = "CYCLE_LIMIT_EXCEEDED"
)

// Error wraps a Code with contextual detail, implementing error and
// Unwrap so callers can still errors.Is against the underlying cause.
type Error struct {
	Code    Code
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error with the given code and detail message.
func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Wrap constructs an *Error with the given code, detail, and underlying
// cause, preserving it for errors.Is/errors.As.
func Wrap(code Code, detail string, cause error) *Error {
	return &Error{Code: code, Detail: detail, Cause: cause}
}
