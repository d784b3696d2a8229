package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/flowengine/engine/internal/domain"
	"github.com/flowengine/engine/internal/storage/models"
	"github.com/flowengine/engine/internal/store"
)

var _ store.MessageRepository = (*MessageStore)(nil)

// MessageStore implements store.MessageRepository.
type MessageStore struct {
	db *bun.DB
}

func NewMessageStore(db *bun.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Create(ctx context.Context, m *domain.Message) error {
	row := models.MessageFromDomain(m)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("pg: create message: %w", err)
	}
	return nil
}

func (s *MessageStore) Update(ctx context.Context, m *domain.Message) error {
	row := models.MessageFromDomain(m)
	_, err := s.db.NewUpdate().
		Model(row).
		Column("status", "provider_id", "provider_error", "updated_at").
		Where("id = ?", row.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pg: update message: %w", err)
	}
	return nil
}

// HasInboundSince backs stop_on_reply's reply check (spec §6's
// hasInboundMessageSince).
func (s *MessageStore) HasInboundSince(ctx context.Context, contactID string, since time.Time, channel *domain.Channel) (bool, error) {
	q := s.db.NewSelect().
		Model((*models.MessageModel)(nil)).
		Where("contact_id = ?", contactID).
		Where("direction = ?", string(domain.DirectionInbound)).
		Where("created_at >= ?", since)
	if channel != nil {
		q = q.Where("channel = ?", string(*channel))
	}
	count, err := q.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("pg: has inbound since: %w", err)
	}
	return count > 0, nil
}
