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

var _ store.TemplateRepository = (*TemplateStore)(nil)

// TemplateStore implements store.TemplateRepository.
type TemplateStore struct {
	db *bun.DB
}

func NewTemplateStore(db *bun.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) Get(ctx context.Context, id string) (*domain.Template, error) {
	m := &models.TemplateModel{}
	err := s.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template not found: %s", id)
		}
		return nil, fmt.Errorf("pg: get template: %w", err)
	}
	return models.TemplateToDomain(m), nil
}
