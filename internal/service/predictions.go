package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"coinpredict/internal/models"
	"coinpredict/internal/oracle"
	"coinpredict/internal/repository"
)

type CreatePredictionInput struct {
	UserID    string
	CoinID    string
	Direction models.Direction
	// PriceAtPrediction is captured from the oracle when nil.
	PriceAtPrediction *decimal.Decimal
}

type ListPredictionsInput struct {
	UserID string
	CoinID string
	Status string
	Limit  int
	Offset int
}

type UserStats struct {
	UserID           string  `json:"user_id"`
	TotalPredictions int64   `json:"total_predictions"`
	Correct          int64   `json:"correct"`
	Incorrect        int64   `json:"incorrect"`
	Pending          int64   `json:"pending"`
	Accuracy         float64 `json:"accuracy"`
	CurrentStreak    int     `json:"current_streak"`
}

type PredictionService struct {
	Repo     repository.PredictionRepository
	Coins    repository.CoinRepository
	Oracle   oracle.Oracle
	Settings *SystemSettingsService
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *PredictionService) Create(ctx context.Context, in CreatePredictionInput) (*models.Prediction, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("prediction repo unavailable")
	}
	in.UserID = strings.TrimSpace(in.UserID)
	in.CoinID = strings.ToLower(strings.TrimSpace(in.CoinID))
	if in.UserID == "" || in.CoinID == "" {
		return nil, fmt.Errorf("%w: user_id and coin_id are required", ErrInvalidInput)
	}
	if !in.Direction.Valid() {
		return nil, fmt.Errorf("%w: predicted_direction must be up or down", ErrInvalidInput)
	}
	if !s.Settings.IsEnabled(ctx, FeaturePredictionIntake, true) {
		return nil, ErrIntakeDisabled
	}
	if s.Coins != nil {
		coin, err := s.Coins.GetCoinByCoinID(ctx, in.CoinID)
		if err != nil {
			return nil, err
		}
		if coin == nil || !coin.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrCoinNotTracked, in.CoinID)
		}
	}

	var price decimal.Decimal
	if in.PriceAtPrediction != nil {
		price = *in.PriceAtPrediction
	} else {
		if s.Oracle == nil {
			return nil, fmt.Errorf("%w: no oracle configured", oracle.ErrUnavailable)
		}
		quote, err := s.Oracle.CurrentPrice(ctx, in.CoinID)
		if err != nil {
			return nil, err
		}
		price = quote.Price
	}
	price = models.NormalizePrice(price)
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price_at_prediction must be > 0 at %d decimal places", ErrInvalidInput, models.PriceScale)
	}

	item := &models.Prediction{
		ID:                  uuid.NewString(),
		UserID:              in.UserID,
		CoinID:              in.CoinID,
		PredictedDirection:  in.Direction,
		PredictionTimestamp: s.now(),
		PriceAtPrediction:   price,
		Status:              models.StatusPending,
	}
	if err := s.Repo.CreatePrediction(ctx, item); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("prediction created",
			zap.String("prediction_id", item.ID),
			zap.String("user_id", item.UserID),
			zap.String("coin_id", item.CoinID),
			zap.String("direction", string(item.PredictedDirection)),
		)
	}
	return item, nil
}

func (s *PredictionService) Get(ctx context.Context, id string) (*models.Prediction, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	return s.Repo.GetPrediction(ctx, id)
}

func (s *PredictionService) List(ctx context.Context, in ListPredictionsInput) ([]models.Prediction, int64, error) {
	if s == nil || s.Repo == nil {
		return []models.Prediction{}, 0, nil
	}
	params := repository.ListPredictionsParams{
		Limit:   in.Limit,
		Offset:  in.Offset,
		OrderBy: "prediction_timestamp",
	}
	if v := strings.TrimSpace(in.UserID); v != "" {
		params.UserID = &v
	}
	if v := strings.TrimSpace(in.CoinID); v != "" {
		params.CoinID = &v
	}
	if v := strings.TrimSpace(in.Status); v != "" {
		st, err := models.ParseStatus(v)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		params.Statuses = []models.PredictionStatus{st}
	}
	items, err := s.Repo.ListPredictions(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountPredictions(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// streakScanLimit bounds how many resolved predictions the streak walk reads.
const streakScanLimit = 500

// UserStats counts resolved and pending predictions for one user. The streak is the
// run of correct predictions ending at the most recent resolution.
func (s *PredictionService) UserStats(ctx context.Context, userID string) (UserStats, error) {
	userID = strings.TrimSpace(userID)
	out := UserStats{UserID: userID}
	if s == nil || s.Repo == nil || userID == "" {
		return out, nil
	}

	count := func(st models.PredictionStatus) (int64, error) {
		return s.Repo.CountPredictions(ctx, repository.ListPredictionsParams{
			UserID:   &userID,
			Statuses: []models.PredictionStatus{st},
		})
	}
	var err error
	if out.Correct, err = count(models.StatusCorrect); err != nil {
		return out, err
	}
	if out.Incorrect, err = count(models.StatusIncorrect); err != nil {
		return out, err
	}
	if out.Pending, err = count(models.StatusPending); err != nil {
		return out, err
	}
	out.TotalPredictions = out.Correct + out.Incorrect
	if out.TotalPredictions > 0 {
		out.Accuracy = float64(out.Correct) / float64(out.TotalPredictions)
	}

	recent, err := s.Repo.ListPredictions(ctx, repository.ListPredictionsParams{
		Limit:    streakScanLimit,
		UserID:   &userID,
		Statuses: []models.PredictionStatus{models.StatusCorrect, models.StatusIncorrect},
		OrderBy:  "resolved_at",
		Asc:      boolPtr(false),
	})
	if err != nil {
		return out, err
	}
	for _, p := range recent {
		if p.Status != models.StatusCorrect {
			break
		}
		out.CurrentStreak++
	}
	return out, nil
}

func (s *PredictionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func boolPtr(v bool) *bool {
	return &v
}
