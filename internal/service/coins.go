package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coinpredict/internal/models"
	"coinpredict/internal/repository"
)

type AddCoinInput struct {
	CoinID   string
	Symbol   string
	Name     string
	ImageURL *string
	IsActive *bool
}

type CoinService struct {
	Repo   repository.CoinRepository
	Logger *zap.Logger
}

func (s *CoinService) Add(ctx context.Context, in AddCoinInput) (*models.ManagedCoin, error) {
	coinID := strings.ToLower(strings.TrimSpace(in.CoinID))
	symbol := strings.TrimSpace(in.Symbol)
	name := strings.TrimSpace(in.Name)
	if coinID == "" || symbol == "" || name == "" {
		return nil, fmt.Errorf("%w: coin_id, symbol and name are required", ErrInvalidInput)
	}
	item := &models.ManagedCoin{
		ID:       uuid.NewString(),
		CoinID:   coinID,
		Symbol:   symbol,
		Name:     name,
		IsActive: true,
	}
	if in.ImageURL != nil && strings.TrimSpace(*in.ImageURL) != "" {
		v := strings.TrimSpace(*in.ImageURL)
		item.ImageURL = &v
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	if err := s.Repo.InsertCoin(ctx, item); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("managed coin added", zap.String("coin_id", item.CoinID), zap.Bool("is_active", item.IsActive))
	}
	return item, nil
}

func (s *CoinService) List(ctx context.Context, activeOnly bool) ([]models.ManagedCoin, error) {
	return s.Repo.ListCoins(ctx, activeOnly)
}

func (s *CoinService) SetActive(ctx context.Context, id string, active bool) (*models.ManagedCoin, error) {
	item, err := s.Repo.SetCoinActive(ctx, strings.TrimSpace(id), active)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("managed coin updated", zap.String("coin_id", item.CoinID), zap.Bool("is_active", active))
	}
	return item, nil
}

func (s *CoinService) Delete(ctx context.Context, id string) (*models.ManagedCoin, error) {
	item, err := s.Repo.DeleteCoin(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("managed coin deleted", zap.String("coin_id", item.CoinID))
	}
	return item, nil
}
