package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/store/schema"
)

type cursorStore struct {
	db *gorm.DB
}

// NewCursorStore creates a new reconciliation cursor store
func NewCursorStore(db *gorm.DB) CursorStore {
	return &cursorStore{db: db}
}

func cursorKey(userID uint32, network domain.Network) string {
	return fmt.Sprintf("reconcile_cursor:%d:%s", userID, network)
}

// GetReconcileCursor retrieves the last fully processed incoming tx hash
func (s *cursorStore) GetReconcileCursor(ctx context.Context, userID uint32, network domain.Network) (string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", cursorKey(userID, network)).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil // no cursor yet
		}
		return "", fmt.Errorf("failed to get reconcile cursor: %w", err)
	}
	return kv.Value, nil
}

// SetReconcileCursor stores the last fully processed incoming tx hash
func (s *cursorStore) SetReconcileCursor(ctx context.Context, userID uint32, network domain.Network, hash string) error {
	kv := schema.KeyValueStore{
		Key:   cursorKey(userID, network),
		Value: hash,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set reconcile cursor: %w", err)
	}
	return nil
}
