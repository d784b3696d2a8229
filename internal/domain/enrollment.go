package domain

import "time"

// EnrollmentStatus is the enrollment lifecycle state.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentStopped   EnrollmentStatus = "stopped"
	EnrollmentFailed    EnrollmentStatus = "failed"
)

// Terminal reports whether status is an absorbing state.
func (s EnrollmentStatus) Terminal() bool {
	return s == EnrollmentCompleted || s == EnrollmentStopped || s == EnrollmentFailed
}

// Enrollment binds one Contact to one Workflow for a single run.
type Enrollment struct {
	ID          string           `json:"id"`
	WorkflowID  string           `json:"workflow_id"`
	ContactID   string           `json:"contact_id"`
	Status      EnrollmentStatus `json:"status"`
	EnrolledAt  time.Time        `json:"enrolled_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	StoppedAt   *time.Time       `json:"stopped_at,omitempty"`
	StopReason  string           `json:"stop_reason,omitempty"`
}

// ExecutionStatus is the execution's durable cursor state.
type ExecutionStatus string

const (
	ExecutionWaiting    ExecutionStatus = "waiting"
	ExecutionProcessing ExecutionStatus = "processing"
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionFailed     ExecutionStatus = "failed"
)

// Execution is the durable cursor advancing one Enrollment through nodes.
type Execution struct {
	ID            string          `json:"id"`
	EnrollmentID  string          `json:"enrollment_id"`
	CurrentNodeID string          `json:"current_node_id"`
	Status        ExecutionStatus `json:"status"`
	NextRunAt     *time.Time      `json:"next_run_at,omitempty"`
	LastRunAt     *time.Time      `json:"last_run_at,omitempty"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"max_attempts"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	ExecutionData map[string]any  `json:"execution_data"`

	// LeaseHolder and LeaseExpiresAt implement the processing lease (§4.3):
	// claimDueExecutions sets both; lease expiry allows re-claiming.
	LeaseHolder    string     `json:"lease_holder,omitempty"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
}

// LogAction is the kind of step an ExecutionLog row recorded.
type LogAction string

const (
	LogActionExecute LogAction = "execute"
	LogActionStop    LogAction = "stop"
)

// LogStatus is the outcome of one processor invocation.
type LogStatus string

const (
	LogStatusCompleted LogStatus = "completed"
	LogStatusFailed    LogStatus = "failed"
)

// ExecutionLog is an append-only record of one processor invocation.
type ExecutionLog struct {
	ID           string         `json:"id"`
	ExecutionID  string         `json:"execution_id"`
	EnrollmentID string         `json:"enrollment_id"`
	NodeID       string         `json:"node_id"`
	NodeType     NodeType       `json:"node_type"`
	Action       LogAction      `json:"action"`
	Status       LogStatus      `json:"status"`
	Input        map[string]any `json:"input,omitempty"`
	Output       map[string]any `json:"output,omitempty"`
	Error        string         `json:"error,omitempty"`
	DurationMS   int64          `json:"duration_ms"`
	CreatedAt    time.Time      `json:"created_at"`
}
