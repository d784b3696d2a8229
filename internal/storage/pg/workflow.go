package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/storage/models"
	"github.com/flowengine/engine/internal/store"
)

var _ store.WorkflowRepository = (*WorkflowStore)(nil)

// WorkflowStore implements store.WorkflowRepository, grounded on the
// teacher's WorkflowRepository (Create/Update's delete-then-insert sync of
// nodes/edges inside one transaction).
type WorkflowStore struct {
	db *bun.DB
}

func NewWorkflowStore(db *bun.DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

func (s *WorkflowStore) Get(ctx context.Context, id string) (*domain.Workflow, error) {
	m := &models.WorkflowModel{}
	err := s.db.NewSelect().
		Model(m).
		Relation("Nodes").
		Relation("Edges").
		Where("w.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("workflow not found: %s", id)
		}
		return nil, fmt.Errorf("pg: get workflow: %w", err)
	}
	return models.WorkflowToDomain(m), nil
}

// SaveGraph performs the whole-graph replace spec §3/§4.3 requires: upsert
// the workflow row, then delete and reinsert nodes and edges, atomically.
func (s *WorkflowStore) SaveGraph(ctx context.Context, wf *domain.Workflow) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &models.WorkflowModel{
			ID:          wf.ID,
			Name:        wf.Name,
			Description: wf.Description,
			Enabled:     wf.Enabled,
			CreatedAt:   wf.CreatedAt,
			UpdatedAt:   wf.UpdatedAt,
		}
		_, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (id) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("description = EXCLUDED.description").
			Set("enabled = EXCLUDED.enabled").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert workflow: %w", err)
		}

		if _, err := tx.NewDelete().Model((*models.EdgeModel)(nil)).Where("workflow_id = ?", wf.ID).Exec(ctx); err != nil {
			return fmt.Errorf("delete edges: %w", err)
		}
		if _, err := tx.NewDelete().Model((*models.NodeModel)(nil)).Where("workflow_id = ?", wf.ID).Exec(ctx); err != nil {
			return fmt.Errorf("delete nodes: %w", err)
		}

		if len(wf.Nodes) > 0 {
			nodeRows := make([]*models.NodeModel, len(wf.Nodes))
			for i, n := range wf.Nodes {
				nodeRows[i] = models.NodeFromDomain(n)
			}
			if _, err := tx.NewInsert().Model(&nodeRows).Exec(ctx); err != nil {
				return fmt.Errorf("insert nodes: %w", err)
			}
		}
		if len(wf.Edges) > 0 {
			edgeRows := make([]*models.EdgeModel, len(wf.Edges))
			for i, e := range wf.Edges {
				edgeRows[i] = models.EdgeFromDomain(e)
			}
			if _, err := tx.NewInsert().Model(&edgeRows).Exec(ctx); err != nil {
				return fmt.Errorf("insert edges: %w", err)
			}
		}
		return nil
	})
}

func (s *WorkflowStore) List(ctx context.Context) ([]*domain.Workflow, error) {
	var rows []*models.WorkflowModel
	if err := s.db.NewSelect().Model(&rows).Relation("Nodes").Relation("Edges").Scan(ctx); err != nil {
		return nil, fmt.Errorf("pg: list workflows: %w", err)
	}
	out := make([]*domain.Workflow, len(rows))
	for i, m := range rows {
		out[i] = models.WorkflowToDomain(m)
	}
	return out, nil
}
