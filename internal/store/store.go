// Package store declares the Execution State Store interfaces (spec §4.3):
// the engine's durable-repository boundary, implemented by
// internal/storage/memstore (in-memory, for tests) and internal/storage/pg
// (Bun-backed Postgres). Mirrors the teacher's split between
// internal/domain/repository (interfaces) and internal/infrastructure/storage
// (implementations).
package store

import (
	"context"
	"time"

	"github.com/flowengine/engine/internal/domain"
)

// WorkflowRepository loads and persists workflow graphs.
type WorkflowRepository interface {
	// Get loads a workflow with its nodes and edges.
	Get(ctx context.Context, id string) (*domain.Workflow, error)
	// SaveGraph performs the whole-graph replace spec §3/§4.3 requires:
	// delete edges, delete nodes, insert nodes, insert edges, atomically.
	SaveGraph(ctx context.Context, wf *domain.Workflow) error
	// List returns all workflows with their nodes and edges.
	List(ctx context.Context) ([]*domain.Workflow, error)
}

// ContactRepository is the engine's read-mostly view of contacts.
type ContactRepository interface {
	Get(ctx context.Context, id string) (*domain.Contact, error)
	// UpdateStatus is the only contact mutation the engine performs
	// (spec §3, update_status processor).
	UpdateStatus(ctx context.Context, id string, status domain.ContactStatus) error
}

// EnrollmentRepository persists enrollments and enforces the
// at-most-one-active-enrollment invariant (spec P7).
type EnrollmentRepository interface {
	Create(ctx context.Context, e *domain.Enrollment) error
	Get(ctx context.Context, id string) (*domain.Enrollment, error)
	// ActiveByWorkflowAndContact returns the active enrollment for the pair,
	// if any. Used by enrollContact's skipDuplicates check and by
	// call_sub_workflow's circular-reference detection.
	ActiveByWorkflowAndContact(ctx context.Context, workflowID, contactID string) (*domain.Enrollment, error)
	Complete(ctx context.Context, id string, at time.Time) error
	Stop(ctx context.Context, id string, reason string, at time.Time) error
	Fail(ctx context.Context, id string) error
}

// ClaimedExecution bundles an execution with the enrollment, contact, and
// workflow graph the Executor Core needs to step it (spec §4.4 step 1).
type ClaimedExecution struct {
	Execution  *domain.Execution
	Enrollment *domain.Enrollment
	Contact    *domain.Contact
	Workflow   *domain.Workflow
}

// ExecutionRepository is the engine's durable cursor store.
type ExecutionRepository interface {
	Create(ctx context.Context, e *domain.Execution) error
	Get(ctx context.Context, id string) (*domain.Execution, error)

	// ClaimDue atomically selects up to limit executions with
	// status=waiting AND next_run_at<=now, transitions them to processing
	// with the given lease holder and expiry, and returns them loaded with
	// their enrollment/contact/workflow context (spec §4.3's atomic claim).
	// Must never return the same row to two concurrent callers.
	ClaimDue(ctx context.Context, now time.Time, limit int, leaseHolder string, leaseTTL time.Duration) ([]*ClaimedExecution, error)

	// Transition persists the result of one Executor Core step: new
	// current node, status, next_run_at, attempts, error_message, and a
	// shallow-merged execution_data. Fields left nil/zero in the patch
	// values that should not change must be handled by the caller
	// (Patch carries explicit "set" flags for nullable fields).
	Transition(ctx context.Context, id string, patch ExecutionPatch) error
}

// ExecutionPatch is the set of fields the Executor Core may update on an
// execution after one processor invocation. Pointer fields left nil mean
// "leave unchanged"; ClearNextRunAt/ClearErrorMessage explicitly clear them
// (next_run_at to NULL, error_message to the empty string).
type ExecutionPatch struct {
	CurrentNodeID    *string
	Status           *domain.ExecutionStatus
	NextRunAt        *time.Time
	ClearNextRunAt   bool
	LastRunAt        *time.Time
	Attempts         *int
	ErrorMessage     *string
	ClearErrorMessage bool
	MergeExecutionData map[string]any
	ReleaseLease     bool
}

// LogRepository appends execution logs. Never updates (spec P8).
type LogRepository interface {
	Append(ctx context.Context, log *domain.ExecutionLog) error
}

// MessageRepository persists outbound messages and answers inbound-reply
// existence queries (spec §6's hasInboundMessageSince).
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	Update(ctx context.Context, m *domain.Message) error
	// HasInboundSince reports whether an inbound message exists for
	// contactID created at or after since, optionally filtered by channel.
	HasInboundSince(ctx context.Context, contactID string, since time.Time, channel *domain.Channel) (bool, error)
}

// TemplateRepository loads the reusable message bodies send_sms/send_email
// nodes reference by id.
type TemplateRepository interface {
	Get(ctx context.Context, id string) (*domain.Template, error)
}

// SettingsRepository loads provider credentials. Read-mostly; processors
// reload on each invocation rather than caching (spec §6).
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.ProviderSettings, error)
}
