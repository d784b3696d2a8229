// Package models holds the Bun ORM row shapes for the Postgres-backed
// store (internal/storage/pg), grounded on the teacher's
// internal/infrastructure/storage/models package: one struct per table,
// JSON-ish columns typed jsonb, and a mappers.go translating to/from the
// domain package's plain structs.
package models

import (
	"time"

	"github.com/uptrace/bun"
)

// WorkflowModel is the workflows table row.
type WorkflowModel struct {
	bun.BaseModel `bun:"table:workflows,alias:w"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	Enabled     bool      `bun:"enabled,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Nodes []*NodeModel `bun:"rel:has-many,join:id=workflow_id"`
	Edges []*EdgeModel `bun:"rel:has-many,join:id=workflow_id"`
}

// NodeModel is the nodes table row. Data is stored as jsonb since its
// shape varies by NodeType (spec §3).
type NodeModel struct {
	bun.BaseModel `bun:"table:nodes,alias:n"`

	ID         string         `bun:"id,pk"`
	WorkflowID string         `bun:"workflow_id,notnull"`
	Type       string         `bun:"type,notnull"`
	PositionX  float64        `bun:"position_x,notnull"`
	PositionY  float64        `bun:"position_y,notnull"`
	Data       map[string]any `bun:"data,type:jsonb"`
}

// EdgeModel is the edges table row.
type EdgeModel struct {
	bun.BaseModel `bun:"table:edges,alias:e"`

	ID           string `bun:"id,pk"`
	WorkflowID   string `bun:"workflow_id,notnull"`
	SourceNodeID string `bun:"source_node_id,notnull"`
	TargetNodeID string `bun:"target_node_id,notnull"`
	SourceHandle string `bun:"source_handle"`
	Label        string `bun:"label"`
}
