package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"coinpredict/internal/models"
	"coinpredict/internal/repository"
)

// predictionOrderColumns whitelists sortable columns for ListPredictions.
var predictionOrderColumns = map[string]struct{}{
	"prediction_timestamp": {},
	"resolved_at":          {},
	"created_at":           {},
}

func (s *Store) CreatePrediction(ctx context.Context, item *models.Prediction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) GetPrediction(ctx context.Context, id string) (*models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Prediction
	err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListEligiblePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 500
	}
	var items []models.Prediction
	err := s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("status = ?", string(models.StatusPending)).
		Where("prediction_timestamp <= ?", cutoff).
		Order("prediction_timestamp asc").
		Order("id asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ResolveIfPending(ctx context.Context, id string, status models.PredictionStatus, price decimal.Decimal, resolvedAt time.Time) error {
	if s == nil || s.db == nil {
		return errors.New("store unavailable")
	}
	if !status.Terminal() {
		return repository.ErrInvalidTransition
	}
	res := s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("id = ?", id).
		Where("status = ?", string(models.StatusPending)).
		Updates(map[string]any{
			"status":              string(status),
			"price_at_resolution": price,
			"resolved_at":         resolvedAt.UTC(),
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrAlreadyResolved
	}
	return nil
}

func (s *Store) ListPredictions(ctx context.Context, params repository.ListPredictionsParams) ([]models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := predictionFilter(s.db.WithContext(ctx).Model(&models.Prediction{}), params)
	orderBy := strings.TrimSpace(params.OrderBy)
	if _, ok := predictionOrderColumns[orderBy]; !ok {
		orderBy = "prediction_timestamp"
	}
	query = applyOrder(query, orderBy, params.Asc, "prediction_timestamp")
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Prediction
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPredictions(ctx context.Context, params repository.ListPredictionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := predictionFilter(s.db.WithContext(ctx).Model(&models.Prediction{}), params).Count(&total).Error
	return total, err
}

func predictionFilter(query *gorm.DB, params repository.ListPredictionsParams) *gorm.DB {
	if params.UserID != nil && strings.TrimSpace(*params.UserID) != "" {
		query = query.Where("user_id = ?", strings.TrimSpace(*params.UserID))
	}
	if params.CoinID != nil && strings.TrimSpace(*params.CoinID) != "" {
		query = query.Where("coin_id = ?", strings.TrimSpace(*params.CoinID))
	}
	if len(params.Statuses) > 0 {
		statuses := make([]string, 0, len(params.Statuses))
		for _, st := range params.Statuses {
			statuses = append(statuses, string(st))
		}
		query = query.Where("status IN ?", statuses)
	}
	return query
}

// LeaderboardRows aggregates resolved predictions per user. Pending and
// error_resolving rows never contribute.
func (s *Store) LeaderboardRows(ctx context.Context, limit int) ([]repository.LeaderboardRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Select(`
			user_id AS user_id,
			COALESCE(SUM(CASE WHEN status = 'correct' THEN 1 ELSE 0 END),0) AS score,
			COUNT(*) AS total_predictions
		`).
		Where("status IN ?", []string{string(models.StatusCorrect), string(models.StatusIncorrect)}).
		Group("user_id").
		Order("score desc").
		Order("total_predictions asc").
		Order("user_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []repository.LeaderboardRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
