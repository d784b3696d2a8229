package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ExecutionLogModel is the execution_logs table row: append-only (spec P8).
type ExecutionLogModel struct {
	bun.BaseModel `bun:"table:execution_logs,alias:el"`

	ID           string         `bun:"id,pk"`
	ExecutionID  string         `bun:"execution_id,notnull"`
	EnrollmentID string         `bun:"enrollment_id,notnull"`
	NodeID       string         `bun:"node_id,notnull"`
	NodeType     string         `bun:"node_type,notnull"`
	Action       string         `bun:"action,notnull"`
	Status       string         `bun:"status,notnull"`
	Input        map[string]any `bun:"input,type:jsonb"`
	Output       map[string]any `bun:"output,type:jsonb"`
	Error        string         `bun:"error"`
	DurationMS   int64          `bun:"duration_ms,notnull"`
	CreatedAt    time.Time      `bun:"created_at,notnull,default:current_timestamp"`
}

// MessageModel is the messages table row.
type MessageModel struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID            string    `bun:"id,pk"`
	ContactID     string    `bun:"contact_id,notnull"`
	Channel       string    `bun:"channel,notnull"`
	Direction     string    `bun:"direction,notnull"`
	Subject       string    `bun:"subject"`
	Body          string    `bun:"body,notnull"`
	Status        string    `bun:"status,notnull"`
	ProviderID    string    `bun:"provider_id"`
	ProviderError string    `bun:"provider_error"`
	Source        string    `bun:"source,notnull"`
	TemplateID    string    `bun:"template_id"`
	ExecutionID   string    `bun:"execution_id"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
