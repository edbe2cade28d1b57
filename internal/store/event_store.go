package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helixpay/custody-engine/internal/store/schema"
)

type eventStore struct {
	db *gorm.DB
}

// NewEventStore creates a PostgreSQL-backed chain event store
func NewEventStore(db *gorm.DB) EventStore {
	return &eventStore{db: db}
}

func (s *eventStore) InsertIfAbsent(ctx context.Context, event *schema.ChainEvent) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_hash"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert chain event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *eventStore) Delete(ctx context.Context, eventHash string) error {
	res := s.db.WithContext(ctx).
		Where("event_hash = ?", eventHash).
		Delete(&schema.ChainEvent{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete chain event: %w", res.Error)
	}
	return nil
}
