package pg

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/storage/models"
	"github.com/flowengine/engine/internal/store"
)

var _ store.LogRepository = (*LogStore)(nil)

// LogStore implements store.LogRepository. Append-only (spec P8): no
// Update/Delete method exists on this type by design.
type LogStore struct {
	db *bun.DB
}

func NewLogStore(db *bun.DB) *LogStore {
	return &LogStore{db: db}
}

func (s *LogStore) Append(ctx context.Context, log *domain.ExecutionLog) error {
	row := models.LogFromDomain(log)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("pg: append log: %w", err)
	}
	return nil
}
