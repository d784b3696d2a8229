package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/storage/models"
	"github.com/flowengine/engine/internal/store"
)

var _ store.ExecutionRepository = (*ExecutionStore)(nil)

// ExecutionStore implements store.ExecutionRepository. ClaimDue is
// grounded on the standard Postgres worker-queue idiom (SELECT ... FOR
// UPDATE SKIP LOCKED) rather than any single teacher file — the teacher's
// ExecutionRepository never claims rows for a pollers, since its
// execution model isn't a poll-driven queue the way this one is.
type ExecutionStore struct {
	db *bun.DB
}

func NewExecutionStore(db *bun.DB) *ExecutionStore {
	return &ExecutionStore{db: db}
}

func (s *ExecutionStore) Create(ctx context.Context, e *domain.Execution) error {
	row := models.ExecutionFromDomain(e)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("pg: create execution: %w", err)
	}
	return nil
}

func (s *ExecutionStore) Get(ctx context.Context, id string) (*domain.Execution, error) {
	m := &models.ExecutionModel{}
	err := s.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("execution not found: %s", id)
		}
		return nil, fmt.Errorf("pg: get execution: %w", err)
	}
	return models.ExecutionToDomain(m), nil
}

// ClaimDue selects up to limit waiting-and-due (or expired-lease) rows
// with FOR UPDATE SKIP LOCKED so concurrent runners never double-claim,
// then transitions them to processing under the given lease in the same
// transaction, and loads each row's enrollment/contact/workflow context
// (spec §4.3's atomic claim, §4.4 step 1).
func (s *ExecutionStore) ClaimDue(ctx context.Context, now time.Time, limit int, leaseHolder string, leaseTTL time.Duration) ([]*store.ClaimedExecution, error) {
	var claimed []*models.ExecutionModel

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var candidates []*models.ExecutionModel
		err := tx.NewSelect().
			Model(&candidates).
			Where("status = ?", string(domain.ExecutionWaiting)).
			Where("next_run_at IS NOT NULL AND next_run_at <= ?", now).
			WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.
					Where("lease_expires_at IS NULL").
					WhereOr("lease_expires_at <= ?", now)
			}).
			Limit(limit).
			For("UPDATE SKIP LOCKED").
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("select due executions: %w", err)
		}
		if len(candidates) == 0 {
			return nil
		}

		leaseExpiry := now.Add(leaseTTL)
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
			c.Status = string(domain.ExecutionProcessing)
			c.LeaseHolder = leaseHolder
			c.LeaseExpiresAt = &leaseExpiry
		}

		_, err = tx.NewUpdate().
			Model(&candidates).
			Column("status", "lease_holder", "lease_expires_at").
			Bulk().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("claim due executions: %w", err)
		}

		claimed = candidates
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(claimed) == 0 {
		return nil, nil
	}

	out := make([]*store.ClaimedExecution, 0, len(claimed))
	for _, row := range claimed {
		execution := models.ExecutionToDomain(row)

		enrollmentRow := &models.EnrollmentModel{}
		if err := s.db.NewSelect().Model(enrollmentRow).Where("id = ?", execution.EnrollmentID).Scan(ctx); err != nil {
			return nil, fmt.Errorf("pg: claim due: load enrollment %s: %w", execution.EnrollmentID, err)
		}
		enrollment := models.EnrollmentToDomain(enrollmentRow)

		contactRow := &models.ContactModel{}
		if err := s.db.NewSelect().Model(contactRow).Where("id = ?", enrollment.ContactID).Scan(ctx); err != nil {
			return nil, fmt.Errorf("pg: claim due: load contact %s: %w", enrollment.ContactID, err)
		}
		contact := models.ContactToDomain(contactRow)

		workflowRow := &models.WorkflowModel{}
		if err := s.db.NewSelect().Model(workflowRow).Relation("Nodes").Relation("Edges").Where("w.id = ?", enrollment.WorkflowID).Scan(ctx); err != nil {
			return nil, fmt.Errorf("pg: claim due: load workflow %s: %w", enrollment.WorkflowID, err)
		}
		workflow := models.WorkflowToDomain(workflowRow)

		out = append(out, &store.ClaimedExecution{
			Execution:  execution,
			Enrollment: enrollment,
			Contact:    contact,
			Workflow:   workflow,
		})
	}
	return out, nil
}

// Transition applies one Executor Core step's result. Fields left nil in
// patch mean "leave unchanged"; the Clear* flags explicitly clear a column
// (next_run_at to NULL, error_message to '').
func (s *ExecutionStore) Transition(ctx context.Context, id string, patch store.ExecutionPatch) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().Model((*models.ExecutionModel)(nil)).Where("id = ?", id)
		touched := false

		if patch.CurrentNodeID != nil {
			q = q.Set("current_node_id = ?", *patch.CurrentNodeID)
			touched = true
		}
		if patch.Status != nil {
			q = q.Set("status = ?", string(*patch.Status))
			touched = true
		}
		if patch.ClearNextRunAt {
			q = q.Set("next_run_at = NULL")
			touched = true
		} else if patch.NextRunAt != nil {
			q = q.Set("next_run_at = ?", *patch.NextRunAt)
			touched = true
		}
		if patch.LastRunAt != nil {
			q = q.Set("last_run_at = ?", *patch.LastRunAt)
			touched = true
		}
		if patch.Attempts != nil {
			q = q.Set("attempts = ?", *patch.Attempts)
			touched = true
		}
		if patch.ClearErrorMessage {
			q = q.Set("error_message = ''")
			touched = true
		} else if patch.ErrorMessage != nil {
			q = q.Set("error_message = ?", *patch.ErrorMessage)
			touched = true
		}
		if patch.ReleaseLease {
			q = q.Set("lease_holder = ''").Set("lease_expires_at = NULL")
			touched = true
		}

		if len(patch.MergeExecutionData) > 0 {
			current := &models.ExecutionModel{}
			if err := tx.NewSelect().Model(current).Where("id = ?", id).Scan(ctx); err != nil {
				return fmt.Errorf("load execution_data for merge: %w", err)
			}
			merged := current.ExecutionData
			if merged == nil {
				merged = map[string]any{}
			}
			for k, v := range patch.MergeExecutionData {
				merged[k] = v
			}
			q = q.Set("execution_data = ?", merged)
			touched = true
		}

		if !touched {
			return nil
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("transition execution: %w", err)
		}
		return nil
	})
}
