// Package engine implements the Executor Core (C4, spec §4.4): the
// sequential single-cursor walk loop that advances one execution through
// its workflow graph until it must wait, terminates, or fails.
package engine

import (
	"context"
	"time"

	"github.com/flowengine/engine/internal/domain"
)

// StepContext is the read-only context a Processor receives, bundling the
// graph, enrollment, execution, and contact the current node belongs to
// (spec §4.2).
type StepContext struct {
	Workflow   *domain.Workflow
	Enrollment *domain.Enrollment
	Execution  *domain.Execution
	Contact    *domain.Contact
	Now        time.Time
}

// StepResult is the transition record a Processor returns; the Executor
// Core persists it, never the processor itself (spec §4.2).
type StepResult struct {
	// NextNodeID, when nil, signals the walk has nothing left to do and the
	// enrollment completes. When non-nil it names the successor node.
	NextNodeID *string

	// NextRunAt, when set, suspends the execution until that time
	// (time_delay). When nil, the walk loop continues immediately.
	NextRunAt *time.Time

	// ExecutionData is shallow-merged into the execution's accumulated map.
	ExecutionData map[string]any

	// OutputData is recorded on the step's log entry only.
	OutputData map[string]any

	// Error is a soft, observational failure: the log is marked failed but
	// the walk still advances using NextNodeID (spec §7 kind 2).
	Error string

	// StopEnrollment signals a hard stop (stop_on_reply match, circular
	// sub-workflow reference); StopReason is recorded on the enrollment.
	StopEnrollment bool
	StopReason     string
}

// Processor implements the logic for one node type (spec §4.2). It must
// not persist enrollment/execution state; it returns a StepResult for the
// Executor Core to apply. A returned error is a thrown/recoverable failure
// (spec §7 kind 1), distinct from StepResult.Error (kind 2, soft failure).
type Processor interface {
	Execute(ctx context.Context, node *domain.Node, step *StepContext) (StepResult, error)
}

// Registry maps a node type to its Processor.
type Registry interface {
	Get(nodeType domain.NodeType) (Processor, bool)
}
