package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"coinpredict/internal/audit"
	"coinpredict/internal/config"
	"coinpredict/internal/models"
	"coinpredict/internal/oracle"
	"coinpredict/internal/repository"
	"coinpredict/internal/stream"
)

// EventResolutionRun is the stream event type carrying a ResolutionSummary.
const EventResolutionRun = "resolution.run"

// ResolutionSummary reports one pass. Counts always add up:
// TotalEligible = ResolvedThisRun + AlreadyResolved + NotAttempted + ErrorsEncountered.
type ResolutionSummary struct {
	TotalEligible     int       `json:"totalEligible"`
	ResolvedThisRun   int       `json:"resolvedThisRun"`
	AlreadyResolved   int       `json:"alreadyResolved"`
	NotAttempted      int       `json:"notAttempted"`
	ErrorsEncountered int       `json:"errorsEncountered"`
	ErrorMessages     []string  `json:"errorMessages"`
	DeadlineExceeded  bool      `json:"deadlineExceeded"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
	Message           string    `json:"message"`
}

// Classify decides a prediction against the resolution price. An unchanged price
// counts as incorrect for both directions.
func Classify(direction models.Direction, atPrediction, atResolution decimal.Decimal) (models.PredictionStatus, error) {
	switch direction {
	case models.DirectionUp:
		if atResolution.GreaterThan(atPrediction) {
			return models.StatusCorrect, nil
		}
		return models.StatusIncorrect, nil
	case models.DirectionDown:
		if atResolution.LessThan(atPrediction) {
			return models.StatusCorrect, nil
		}
		return models.StatusIncorrect, nil
	default:
		return "", fmt.Errorf("%w: direction %q", ErrInvalidInput, direction)
	}
}

type ResolutionService struct {
	Store    repository.PredictionStore
	Runs     repository.ResolutionRunRepository
	Oracle   oracle.Oracle
	Settings *SystemSettingsService
	Hub      *stream.Hub
	Audit    *audit.Client
	Logger   *zap.Logger

	Window      time.Duration
	BatchLimit  int
	MaxParallel int
	ItemTimeout time.Duration
	RunTimeout  time.Duration

	Now func() time.Time
}

func NewResolutionService(store repository.PredictionStore, o oracle.Oracle, cfg config.ResolutionConfig, logger *zap.Logger) *ResolutionService {
	return &ResolutionService{
		Store:       store,
		Oracle:      o,
		Logger:      logger,
		Window:      cfg.Window,
		BatchLimit:  cfg.BatchLimit,
		MaxParallel: cfg.MaxParallel,
		ItemTimeout: cfg.ItemTimeout,
		RunTimeout:  cfg.RunTimeout,
	}
}

type itemOutcome int

const (
	outcomeNotAttempted itemOutcome = iota
	outcomeResolved
	outcomeAlreadyResolved
	outcomeFailed
)

type itemResult struct {
	outcome itemOutcome
	message string
}

// Run resolves every eligible prediction once. Only a failure to list eligible
// predictions is returned as an error; per-item failures land in the summary.
func (s *ResolutionService) Run(ctx context.Context, trigger string) (ResolutionSummary, error) {
	if s == nil || s.Store == nil || s.Oracle == nil {
		return ResolutionSummary{}, errors.New("resolution service not configured")
	}
	if !s.Settings.IsEnabled(ctx, FeatureResolution, true) {
		return ResolutionSummary{}, ErrResolutionDisabled
	}

	started := s.now()
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout())
	defer cancel()

	cutoff := started.Add(-s.window())
	items, err := s.Store.ListEligiblePending(runCtx, cutoff, s.batchLimit())
	if err != nil {
		return ResolutionSummary{}, fmt.Errorf("list eligible predictions: %w", err)
	}

	summary := ResolutionSummary{
		TotalEligible: len(items),
		ErrorMessages: []string{},
		StartedAt:     started,
	}
	if len(items) == 0 {
		summary.FinishedAt = s.now()
		summary.Message = "no eligible predictions"
		return summary, nil
	}

	results := make([]itemResult, len(items))
	var g errgroup.Group
	g.SetLimit(s.maxParallel())
	for i := range items {
		if runCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = s.resolveOne(ctx, runCtx, items[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		switch r.outcome {
		case outcomeResolved:
			summary.ResolvedThisRun++
		case outcomeAlreadyResolved:
			summary.AlreadyResolved++
		case outcomeFailed:
			summary.ErrorsEncountered++
			summary.ErrorMessages = append(summary.ErrorMessages, r.message)
		case outcomeNotAttempted:
			summary.NotAttempted++
		}
	}
	summary.DeadlineExceeded = summary.NotAttempted > 0 || errors.Is(runCtx.Err(), context.DeadlineExceeded)
	summary.FinishedAt = s.now()
	summary.Message = fmt.Sprintf("resolved %d of %d eligible predictions", summary.ResolvedThisRun, summary.TotalEligible)
	if summary.DeadlineExceeded {
		summary.Message += "; run deadline reached"
	}

	s.record(ctx, trigger, summary)
	return summary, nil
}

// resolveOne never returns an error; the outcome carries it. Writes use a context
// detached from the run deadline so an already fetched price is not thrown away.
func (s *ResolutionService) resolveOne(parent, runCtx context.Context, p models.Prediction) itemResult {
	if runCtx.Err() != nil {
		return itemResult{outcome: outcomeNotAttempted}
	}

	itemCtx, cancel := context.WithTimeout(runCtx, s.itemTimeout())
	quote, err := s.Oracle.CurrentPrice(itemCtx, p.CoinID)
	cancel()
	if err != nil {
		if !errors.Is(err, oracle.ErrUnavailable) {
			err = fmt.Errorf("%w: %v", oracle.ErrUnavailable, err)
		}
		return itemResult{
			outcome: outcomeFailed,
			message: fmt.Sprintf("prediction %s (%s): %v", p.ID, p.CoinID, err),
		}
	}

	// Both sides at the stored scale, so an unchanged price stays a tie.
	price := models.NormalizePrice(quote.Price)
	status, err := Classify(p.PredictedDirection, models.NormalizePrice(p.PriceAtPrediction), price)
	if err != nil {
		return itemResult{
			outcome: outcomeFailed,
			message: fmt.Sprintf("prediction %s: %v", p.ID, err),
		}
	}

	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(parent), s.itemTimeout())
	defer cancelWrite()
	err = s.Store.ResolveIfPending(writeCtx, p.ID, status, price, s.now())
	switch {
	case err == nil:
		if s.Logger != nil {
			s.Logger.Debug("prediction resolved",
				zap.String("prediction_id", p.ID),
				zap.String("coin_id", p.CoinID),
				zap.String("status", string(status)),
				zap.String("price_at_resolution", price.String()),
			)
		}
		return itemResult{outcome: outcomeResolved}
	case errors.Is(err, repository.ErrAlreadyResolved):
		return itemResult{outcome: outcomeAlreadyResolved}
	default:
		return itemResult{
			outcome: outcomeFailed,
			message: fmt.Sprintf("prediction %s: persist resolution: %v", p.ID, err),
		}
	}
}

func (s *ResolutionService) record(ctx context.Context, trigger string, summary ResolutionSummary) {
	if s.Logger != nil {
		s.Logger.Info("resolution run finished",
			zap.String("trigger", trigger),
			zap.Int("total_eligible", summary.TotalEligible),
			zap.Int("resolved", summary.ResolvedThisRun),
			zap.Int("already_resolved", summary.AlreadyResolved),
			zap.Int("not_attempted", summary.NotAttempted),
			zap.Int("errors", summary.ErrorsEncountered),
			zap.Bool("deadline_exceeded", summary.DeadlineExceeded),
			zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)),
		)
	}

	if s.Runs != nil {
		raw, _ := json.Marshal(summary.ErrorMessages)
		run := &models.ResolutionRun{
			Trigger:          trigger,
			TotalEligible:    summary.TotalEligible,
			Resolved:         summary.ResolvedThisRun,
			AlreadyResolved:  summary.AlreadyResolved,
			NotAttempted:     summary.NotAttempted,
			Errors:           summary.ErrorsEncountered,
			ErrorMessages:    datatypes.JSON(raw),
			DeadlineExceeded: summary.DeadlineExceeded,
			StartedAt:        summary.StartedAt,
			FinishedAt:       summary.FinishedAt,
		}
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := s.Runs.InsertResolutionRun(saveCtx, run); err != nil && s.Logger != nil {
			s.Logger.Warn("persist resolution run failed", zap.Error(err))
		}
		cancel()
	}

	s.Hub.Publish(EventResolutionRun, summary)

	if s.Audit != nil {
		level := "info"
		if summary.ErrorsEncountered > 0 || summary.DeadlineExceeded {
			level = "warn"
		}
		details := map[string]any{
			"trigger":           trigger,
			"total_eligible":    summary.TotalEligible,
			"resolved":          summary.ResolvedThisRun,
			"already_resolved":  summary.AlreadyResolved,
			"not_attempted":     summary.NotAttempted,
			"errors":            summary.ErrorsEncountered,
			"deadline_exceeded": summary.DeadlineExceeded,
		}
		go s.Audit.LogBestEffort("resolution_run", level, details)
	}
}

func (s *ResolutionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ResolutionService) window() time.Duration {
	if s.Window <= 0 {
		return 24 * time.Hour
	}
	return s.Window
}

func (s *ResolutionService) batchLimit() int {
	if s.BatchLimit <= 0 {
		return 500
	}
	return s.BatchLimit
}

func (s *ResolutionService) maxParallel() int {
	if s.MaxParallel <= 0 {
		return 4
	}
	return s.MaxParallel
}

func (s *ResolutionService) itemTimeout() time.Duration {
	if s.ItemTimeout <= 0 {
		return 10 * time.Second
	}
	return s.ItemTimeout
}

func (s *ResolutionService) runTimeout() time.Duration {
	if s.RunTimeout <= 0 {
		return 50 * time.Second
	}
	return s.RunTimeout
}
