// Package repotest provides an in-memory repository.Repository for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"coinpredict/internal/models"
	"coinpredict/internal/repository"
)

// Store mirrors the gorm store semantics over maps guarded by one mutex.
type Store struct {
	mu       sync.Mutex
	preds    map[string]models.Prediction
	coins    map[string]models.ManagedCoin
	runs     []models.ResolutionRun
	settings map[string]models.SystemSetting
	nextRun  uint64
	nextSet  uint64

	// ListErr, when set, is returned by ListEligiblePending.
	ListErr error
	// BeforeResolve runs ahead of each conditional write; a non-nil error
	// aborts that write and is returned to the caller.
	BeforeResolve func(ctx context.Context, id string) error

	ResolveCalls int
}

func New() *Store {
	return &Store{
		preds:    map[string]models.Prediction{},
		coins:    map[string]models.ManagedCoin{},
		settings: map[string]models.SystemSetting{},
	}
}

var _ repository.Repository = (*Store)(nil)

// Seed inserts predictions as-is, overwriting any with the same id.
func (s *Store) Seed(items ...models.Prediction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if it.Status == "" {
			it.Status = models.StatusPending
		}
		s.preds[it.ID] = it
	}
}

// Prediction returns a copy of the stored row.
func (s *Store) Prediction(id string) (models.Prediction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.preds[id]
	return p, ok
}

func (s *Store) Runs() []models.ResolutionRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ResolutionRun(nil), s.runs...)
}

func (s *Store) CreatePrediction(_ context.Context, item *models.Prediction) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.preds[item.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	if item.Status == "" {
		item.Status = models.StatusPending
	}
	s.preds[item.ID] = *item
	return nil
}

func (s *Store) GetPrediction(_ context.Context, id string) (*models.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.preds[strings.TrimSpace(id)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) ListEligiblePending(_ context.Context, cutoff time.Time, limit int) ([]models.Prediction, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Prediction, 0)
	for _, p := range s.preds {
		if p.Status == models.StatusPending && !p.PredictionTimestamp.After(cutoff) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PredictionTimestamp.Equal(out[j].PredictionTimestamp) {
			return out[i].PredictionTimestamp.Before(out[j].PredictionTimestamp)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ResolveIfPending(ctx context.Context, id string, status models.PredictionStatus, price decimal.Decimal, resolvedAt time.Time) error {
	if !status.Terminal() {
		return repository.ErrInvalidTransition
	}
	if s.BeforeResolve != nil {
		if err := s.BeforeResolve(ctx, id); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResolveCalls++
	p, ok := s.preds[id]
	if !ok || p.Status != models.StatusPending {
		return repository.ErrAlreadyResolved
	}
	at := resolvedAt.UTC()
	px := price
	p.Status = status
	p.PriceAtResolution = &px
	p.ResolvedAt = &at
	p.UpdatedAt = time.Now().UTC()
	s.preds[id] = p
	return nil
}

func (s *Store) ListPredictions(_ context.Context, params repository.ListPredictionsParams) ([]models.Prediction, error) {
	s.mu.Lock()
	items := s.filter(params)
	s.mu.Unlock()

	asc := params.Asc != nil && *params.Asc
	key := func(p models.Prediction) time.Time {
		switch params.OrderBy {
		case "resolved_at":
			if p.ResolvedAt != nil {
				return *p.ResolvedAt
			}
			return time.Time{}
		case "created_at":
			return p.CreatedAt
		default:
			return p.PredictionTimestamp
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if a.Equal(b) {
			return items[i].ID < items[j].ID
		}
		if asc {
			return a.Before(b)
		}
		return a.After(b)
	})
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []models.Prediction{}, nil
	}
	items = items[offset:]
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) CountPredictions(_ context.Context, params repository.ListPredictionsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filter(params))), nil
}

func (s *Store) filter(params repository.ListPredictionsParams) []models.Prediction {
	statuses := map[models.PredictionStatus]bool{}
	for _, st := range params.Statuses {
		statuses[st] = true
	}
	out := make([]models.Prediction, 0)
	for _, p := range s.preds {
		if params.UserID != nil && *params.UserID != "" && p.UserID != *params.UserID {
			continue
		}
		if params.CoinID != nil && *params.CoinID != "" && p.CoinID != *params.CoinID {
			continue
		}
		if len(statuses) > 0 && !statuses[p.Status] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Store) LeaderboardRows(_ context.Context, limit int) ([]repository.LeaderboardRow, error) {
	s.mu.Lock()
	byUser := map[string]*repository.LeaderboardRow{}
	for _, p := range s.preds {
		if !p.Status.Scored() {
			continue
		}
		row, ok := byUser[p.UserID]
		if !ok {
			row = &repository.LeaderboardRow{UserID: p.UserID}
			byUser[p.UserID] = row
		}
		row.TotalPredictions++
		if p.Status == models.StatusCorrect {
			row.Score++
		}
	}
	s.mu.Unlock()

	rows := make([]repository.LeaderboardRow, 0, len(byUser))
	for _, r := range byUser {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		if rows[i].TotalPredictions != rows[j].TotalPredictions {
			return rows[i].TotalPredictions < rows[j].TotalPredictions
		}
		return rows[i].UserID < rows[j].UserID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) InsertCoin(_ context.Context, item *models.ManagedCoin) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.coins {
		if c.CoinID == item.CoinID {
			return repository.ErrDuplicate
		}
	}
	if _, ok := s.coins[item.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	s.coins[item.ID] = *item
	return nil
}

func (s *Store) GetCoinByCoinID(_ context.Context, coinID string) (*models.ManagedCoin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.coins {
		if c.CoinID == strings.TrimSpace(coinID) {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ListCoins(_ context.Context, activeOnly bool) ([]models.ManagedCoin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ManagedCoin, 0, len(s.coins))
	for _, c := range s.coins {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SetCoinActive(_ context.Context, id string, active bool) (*models.ManagedCoin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.IsActive = active
	c.UpdatedAt = time.Now().UTC()
	s.coins[id] = c
	return &c, nil
}

func (s *Store) DeleteCoin(_ context.Context, id string) (*models.ManagedCoin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.coins, id)
	return &c, nil
}

func (s *Store) InsertResolutionRun(_ context.Context, item *models.ResolutionRun) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRun++
	item.ID = s.nextRun
	item.CreatedAt = time.Now().UTC()
	s.runs = append(s.runs, *item)
	return nil
}

func (s *Store) ListResolutionRuns(_ context.Context, limit, offset int) ([]models.ResolutionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ResolutionRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		out = append(out, s.runs[i])
	}
	if offset > 0 {
		if offset >= len(out) {
			return []models.ResolutionRun{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertSystemSetting(_ context.Context, item *models.SystemSetting) error {
	if item == nil || strings.TrimSpace(item.Key) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(item.Key)
	now := time.Now().UTC()
	if existing, ok := s.settings[key]; ok {
		existing.Value = item.Value
		existing.Description = item.Description
		existing.UpdatedAt = now
		s.settings[key] = existing
		return nil
	}
	s.nextSet++
	item.ID = s.nextSet
	item.Key = key
	item.CreatedAt, item.UpdatedAt = now, now
	s.settings[key] = *item
	return nil
}

func (s *Store) GetSystemSettingByKey(_ context.Context, key string) (*models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.settings[strings.TrimSpace(key)]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (s *Store) ListSystemSettings(_ context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SystemSetting, 0, len(s.settings))
	for k, it := range s.settings {
		if params.Prefix != nil && !strings.HasPrefix(k, strings.TrimSpace(*params.Prefix)) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
