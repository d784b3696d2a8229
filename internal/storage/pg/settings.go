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

var _ store.SettingsRepository = (*SettingsStore)(nil)

// SettingsStore implements store.SettingsRepository. Provider credentials
// live in a single row (id=1); processors reload on each invocation
// (spec §6), so there's no cache to invalidate here.
type SettingsStore struct {
	db *bun.DB
}

func NewSettingsStore(db *bun.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(ctx context.Context) (*domain.ProviderSettings, error) {
	m := &models.ProviderSettingsModel{}
	err := s.db.NewSelect().Model(m).Where("id = 1").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ProviderSettings{}, nil
		}
		return nil, fmt.Errorf("pg: get settings: %w", err)
	}
	return models.SettingsToDomain(m), nil
}
