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

type walletStore struct {
	db *gorm.DB
}

// NewWalletStore creates a PostgreSQL-backed wallet store
func NewWalletStore(db *gorm.DB) WalletStore {
	return &walletStore{db: db}
}

func (s *walletStore) FindByAddress(ctx context.Context, address string) (*schema.Wallet, error) {
	var wallet schema.Wallet
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to find wallet by address: %w", err)
	}
	return &wallet, nil
}

func (s *walletStore) FindByUserAndNetwork(ctx context.Context, userID uint32, network domain.Network) (*schema.Wallet, error) {
	var wallet schema.Wallet
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND network = ?", userID, string(network)).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to find wallet by user and network: %w", err)
	}
	return &wallet, nil
}

func (s *walletStore) InsertIfAbsent(ctx context.Context, wallet *schema.Wallet) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(wallet)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert wallet: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *walletStore) ListByUser(ctx context.Context, userID uint32) ([]schema.Wallet, error) {
	var wallets []schema.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

func (s *walletStore) DistinctUserIDs(ctx context.Context) ([]uint32, error) {
	var ids []uint32
	err := s.db.WithContext(ctx).
		Model(&schema.Wallet{}).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}
