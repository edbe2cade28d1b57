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

type ledgerStore struct {
	db *gorm.DB
}

// NewLedgerStore creates a PostgreSQL-backed ledger store
func NewLedgerStore(db *gorm.DB) LedgerStore {
	return &ledgerStore{db: db}
}

func (s *ledgerStore) FindByExternalRef(ctx context.Context, ref string) (*schema.LedgerTransaction, error) {
	var tx schema.LedgerTransaction
	err := s.db.WithContext(ctx).Where("external_ref = ?", ref).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ledger entry by ref: %w", err)
	}
	return &tx, nil
}

func (s *ledgerStore) ExistingRefs(ctx context.Context, userID uint32, network domain.Network, refs []string) (map[string]struct{}, error) {
	if len(refs) == 0 {
		return map[string]struct{}{}, nil
	}

	var found []string
	err := s.db.WithContext(ctx).
		Model(&schema.LedgerTransaction{}).
		Where("user_id = ? AND network = ? AND external_ref IN ?", userID, string(network), refs).
		Pluck("external_ref", &found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query existing refs: %w", err)
	}

	out := make(map[string]struct{}, len(found))
	for _, ref := range found {
		out[ref] = struct{}{}
	}
	return out, nil
}

func (s *ledgerStore) InsertCreditIfAbsent(ctx context.Context, tx *schema.LedgerTransaction) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_ref"}},
			DoNothing: true,
		}).
		Create(tx)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert credit: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *ledgerStore) Insert(ctx context.Context, tx *schema.LedgerTransaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

func (s *ledgerStore) FindWithdrawals(ctx context.Context, status domain.LedgerStatus, retry int) ([]schema.LedgerTransaction, error) {
	q := s.db.WithContext(ctx).
		Where("entity_type = ? AND status = ?", string(domain.LedgerEntityWithdrawal), string(status))
	if retry >= 0 {
		q = q.Where("retry_count = ?", retry)
	}

	var rows []schema.LedgerTransaction
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find withdrawals: %w", err)
	}
	return rows, nil
}

func (s *ledgerStore) UpdateStatus(ctx context.Context, id int64, expected, next domain.LedgerStatus, patch map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     string(next),
		"updated_at": gorm.Expr("now()"),
	}
	for k, v := range patch {
		updates[k] = v
	}

	// Guarded by expected status so racing job runs cannot apply
	// conflicting transitions.
	res := s.db.WithContext(ctx).
		Model(&schema.LedgerTransaction{}).
		Where("id = ? AND status = ?", id, string(expected)).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update ledger status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
