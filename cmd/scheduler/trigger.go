package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// triggerSummary mirrors the fields of the resolution summary the scheduler logs.
type triggerSummary struct {
	TotalEligible     int      `json:"totalEligible"`
	ResolvedThisRun   int      `json:"resolvedThisRun"`
	AlreadyResolved   int      `json:"alreadyResolved"`
	NotAttempted      int      `json:"notAttempted"`
	ErrorsEncountered int      `json:"errorsEncountered"`
	ErrorMessages     []string `json:"errorMessages"`
	DeadlineExceeded  bool     `json:"deadlineExceeded"`
	Message           string   `json:"message"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// trigger calls the resolution endpoint with the shared secret.
type trigger struct {
	http   *resty.Client
	url    string
	secret string
	logger *zap.Logger
}

func newTrigger(url, secret string, timeout time.Duration, logger *zap.Logger) *trigger {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &trigger{
		http:   resty.New().SetTimeout(timeout).SetRetryCount(0),
		url:    strings.TrimSpace(url),
		secret: secret,
		logger: logger,
	}
}

func (t *trigger) Fire(ctx context.Context) (triggerSummary, error) {
	if t.secret == "" {
		return triggerSummary{}, errors.New("cron secret is empty")
	}
	resp, err := t.http.R().
		SetContext(ctx).
		SetAuthToken(t.secret).
		SetHeader("Accept", "application/json").
		Post(t.url)
	if err != nil {
		return triggerSummary{}, err
	}
	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)
	if !resp.IsSuccess() {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return triggerSummary{}, fmt.Errorf("resolve-predictions http %d: %s", resp.StatusCode(), msg)
	}
	if decodeErr != nil {
		return triggerSummary{}, fmt.Errorf("decode response envelope: %w", decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return triggerSummary{}, errors.New("response envelope has no summary")
	}
	var summary triggerSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		return triggerSummary{}, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}

// Run fires once and logs the outcome; errors are logged, not returned, so the
// cron loop keeps going.
func (t *trigger) Run(ctx context.Context) {
	started := time.Now()
	summary, err := t.Fire(ctx)
	if err != nil {
		t.logger.Warn("resolution trigger failed", zap.Error(err), zap.Duration("took", time.Since(started)))
		return
	}
	fields := []zap.Field{
		zap.Int("total_eligible", summary.TotalEligible),
		zap.Int("resolved", summary.ResolvedThisRun),
		zap.Int("already_resolved", summary.AlreadyResolved),
		zap.Int("not_attempted", summary.NotAttempted),
		zap.Int("errors", summary.ErrorsEncountered),
		zap.Bool("deadline_exceeded", summary.DeadlineExceeded),
		zap.Duration("took", time.Since(started)),
	}
	if summary.ErrorsEncountered > 0 || summary.DeadlineExceeded {
		t.logger.Warn("resolution run partial", append(fields, zap.Strings("error_messages", summary.ErrorMessages))...)
		return
	}
	t.logger.Info("resolution run ok", fields...)
}
