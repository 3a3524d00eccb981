package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"coinpredict/internal/models"
	"coinpredict/internal/repository"
)

func (s *Store) InsertCoin(ctx context.Context, item *models.ManagedCoin) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.CoinID = strings.TrimSpace(item.CoinID)
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) GetCoinByCoinID(ctx context.Context, coinID string) (*models.ManagedCoin, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return nil, nil
	}
	var item models.ManagedCoin
	err := s.db.WithContext(ctx).Model(&models.ManagedCoin{}).Where("coin_id = ?", coinID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListCoins(ctx context.Context, activeOnly bool) ([]models.ManagedCoin, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.ManagedCoin{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var items []models.ManagedCoin
	if err := query.Order("created_at desc").Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SetCoinActive(ctx context.Context, id string, active bool) (*models.ManagedCoin, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var out models.ManagedCoin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ManagedCoin{}).
			Where("id = ?", strings.TrimSpace(id)).
			Updates(map[string]any{
				"is_active":  active,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return tx.Where("id = ?", strings.TrimSpace(id)).First(&out).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *Store) DeleteCoin(ctx context.Context, id string) (*models.ManagedCoin, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var out models.ManagedCoin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", strings.TrimSpace(id)).First(&out).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ManagedCoin{}, "id = ?", out.ID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}
