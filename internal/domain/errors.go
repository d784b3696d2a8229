package domain

import "errors"

// Sentinel validation/domain errors, mirroring the sentinel-plus-wrapper
// style used throughout the engine's error surface.
var (
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrWorkflowNoNodes      = errors.New("workflow must have at least one node")
	ErrWorkflowTriggerCount = errors.New("workflow must have exactly one trigger_start node")
)

// ValidationError reports a single structural problem found while
// validating a workflow graph or node payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
