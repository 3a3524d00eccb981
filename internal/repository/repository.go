package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"coinpredict/internal/models"
)

var (
	// ErrAlreadyResolved is returned by ResolveIfPending when the stored status is no
	// longer pending (or the prediction does not exist). Callers treat it as a benign skip.
	ErrAlreadyResolved = errors.New("prediction already resolved")
	// ErrInvalidTransition rejects writes that would move a prediction back to pending.
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate")
)

// PredictionStore is the contract the resolution worker depends on.
type PredictionStore interface {
	// ListEligiblePending returns pending predictions created at or before cutoff,
	// oldest first, at most limit rows.
	ListEligiblePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Prediction, error)
	// ResolveIfPending sets status and resolution price only while the stored status is
	// still pending. It is a single conditional write.
	ResolveIfPending(ctx context.Context, id string, status models.PredictionStatus, price decimal.Decimal, resolvedAt time.Time) error
}

type PredictionRepository interface {
	PredictionStore

	CreatePrediction(ctx context.Context, item *models.Prediction) error
	GetPrediction(ctx context.Context, id string) (*models.Prediction, error)
	ListPredictions(ctx context.Context, params ListPredictionsParams) ([]models.Prediction, error)
	CountPredictions(ctx context.Context, params ListPredictionsParams) (int64, error)
}

// LeaderboardReader is read-only.
type LeaderboardReader interface {
	LeaderboardRows(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

type CoinRepository interface {
	InsertCoin(ctx context.Context, item *models.ManagedCoin) error
	GetCoinByCoinID(ctx context.Context, coinID string) (*models.ManagedCoin, error)
	ListCoins(ctx context.Context, activeOnly bool) ([]models.ManagedCoin, error)
	SetCoinActive(ctx context.Context, id string, active bool) (*models.ManagedCoin, error)
	DeleteCoin(ctx context.Context, id string) (*models.ManagedCoin, error)
}

type ResolutionRunRepository interface {
	InsertResolutionRun(ctx context.Context, item *models.ResolutionRun) error
	ListResolutionRuns(ctx context.Context, limit, offset int) ([]models.ResolutionRun, error)
}

type SettingsRepository interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
}

// Repository is the full store used by cmd/server.
type Repository interface {
	PredictionRepository
	LeaderboardReader
	CoinRepository
	ResolutionRunRepository
	SettingsRepository
}

type ListPredictionsParams struct {
	Limit    int
	Offset   int
	UserID   *string
	CoinID   *string
	Statuses []models.PredictionStatus
	OrderBy  string
	Asc      *bool
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}

// LeaderboardRow is one aggregated user row over resolved predictions.
type LeaderboardRow struct {
	UserID           string
	Score            int64
	TotalPredictions int64
}
