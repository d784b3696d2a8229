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

var _ store.ContactRepository = (*ContactStore)(nil)

// ContactStore implements store.ContactRepository.
type ContactStore struct {
	db *bun.DB
}

func NewContactStore(db *bun.DB) *ContactStore {
	return &ContactStore{db: db}
}

func (s *ContactStore) Get(ctx context.Context, id string) (*domain.Contact, error) {
	m := &models.ContactModel{}
	err := s.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contact not found: %s", id)
		}
		return nil, fmt.Errorf("pg: get contact: %w", err)
	}
	return models.ContactToDomain(m), nil
}

func (s *ContactStore) UpdateStatus(ctx context.Context, id string, status domain.ContactStatus) error {
	_, err := s.db.NewUpdate().
		Model((*models.ContactModel)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pg: update contact status: %w", err)
	}
	return nil
}
