package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EnrollmentModel is the enrollments table row.
type EnrollmentModel struct {
	bun.BaseModel `bun:"table:enrollments,alias:en"`

	ID          string     `bun:"id,pk"`
	WorkflowID  string     `bun:"workflow_id,notnull"`
	ContactID   string     `bun:"contact_id,notnull"`
	Status      string     `bun:"status,notnull"`
	EnrolledAt  time.Time  `bun:"enrolled_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at"`
	StoppedAt   *time.Time `bun:"stopped_at"`
	StopReason  string     `bun:"stop_reason"`
}

// ExecutionModel is the executions table row: the durable cursor advancing
// one enrollment through the graph (spec §4.3).
type ExecutionModel struct {
	bun.BaseModel `bun:"table:executions,alias:ex"`

	ID             string         `bun:"id,pk"`
	EnrollmentID   string         `bun:"enrollment_id,notnull"`
	CurrentNodeID  string         `bun:"current_node_id,notnull"`
	Status         string         `bun:"status,notnull"`
	NextRunAt      *time.Time     `bun:"next_run_at"`
	LastRunAt      *time.Time     `bun:"last_run_at"`
	Attempts       int            `bun:"attempts,notnull"`
	MaxAttempts    int            `bun:"max_attempts,notnull"`
	ErrorMessage   string         `bun:"error_message"`
	ExecutionData  map[string]any `bun:"execution_data,type:jsonb"`
	LeaseHolder    string         `bun:"lease_holder"`
	LeaseExpiresAt *time.Time     `bun:"lease_expires_at"`
}
