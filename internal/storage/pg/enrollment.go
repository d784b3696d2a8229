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

var _ store.EnrollmentRepository = (*EnrollmentStore)(nil)

// EnrollmentStore implements store.EnrollmentRepository.
type EnrollmentStore struct {
	db *bun.DB
}

func NewEnrollmentStore(db *bun.DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

func (s *EnrollmentStore) Create(ctx context.Context, e *domain.Enrollment) error {
	row := models.EnrollmentFromDomain(e)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("pg: create enrollment: %w", err)
	}
	return nil
}

func (s *EnrollmentStore) Get(ctx context.Context, id string) (*domain.Enrollment, error) {
	m := &models.EnrollmentModel{}
	err := s.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("enrollment not found: %s", id)
		}
		return nil, fmt.Errorf("pg: get enrollment: %w", err)
	}
	return models.EnrollmentToDomain(m), nil
}

// ActiveByWorkflowAndContact backs both enrollContact's skipDuplicates
// check and call_sub_workflow's circular-reference detection (spec P7).
func (s *EnrollmentStore) ActiveByWorkflowAndContact(ctx context.Context, workflowID, contactID string) (*domain.Enrollment, error) {
	m := &models.EnrollmentModel{}
	err := s.db.NewSelect().
		Model(m).
		Where("workflow_id = ?", workflowID).
		Where("contact_id = ?", contactID).
		Where("status = ?", string(domain.EnrollmentActive)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pg: active enrollment lookup: %w", err)
	}
	return models.EnrollmentToDomain(m), nil
}

func (s *EnrollmentStore) Complete(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*models.EnrollmentModel)(nil)).
		Set("status = ?", string(domain.EnrollmentCompleted)).
		Set("completed_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pg: complete enrollment: %w", err)
	}
	return nil
}

func (s *EnrollmentStore) Stop(ctx context.Context, id string, reason string, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*models.EnrollmentModel)(nil)).
		Set("status = ?", string(domain.EnrollmentStopped)).
		Set("stopped_at = ?", at).
		Set("stop_reason = ?", reason).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pg: stop enrollment: %w", err)
	}
	return nil
}

func (s *EnrollmentStore) Fail(ctx context.Context, id string) error {
	_, err := s.db.NewUpdate().
		Model((*models.EnrollmentModel)(nil)).
		Set("status = ?", string(domain.EnrollmentFailed)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pg: fail enrollment: %w", err)
	}
	return nil
}
