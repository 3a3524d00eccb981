package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"coinpredict/internal/models"
	"coinpredict/internal/oracle"
)

type stubOracle struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	fail   map[string]bool
	calls  int32
	// gate, when set, holds every call until it is closed or ctx ends.
	gate chan struct{}
}

func newStubOracle() *stubOracle {
	return &stubOracle{prices: map[string]decimal.Decimal{}, fail: map[string]bool{}}
}

func (o *stubOracle) set(coinID string, price string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[coinID] = decimal.RequireFromString(price)
}

func (o *stubOracle) CurrentPrice(ctx context.Context, coinID string) (oracle.Quote, error) {
	atomic.AddInt32(&o.calls, 1)
	if o.gate != nil {
		select {
		case <-o.gate:
		case <-ctx.Done():
			return oracle.Quote{}, fmt.Errorf("%w: %v", oracle.ErrUnavailable, ctx.Err())
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail[coinID] {
		return oracle.Quote{}, fmt.Errorf("%w: upstream 503", oracle.ErrUnavailable)
	}
	p, ok := o.prices[coinID]
	if !ok {
		return oracle.Quote{}, fmt.Errorf("%w: %s missing", oracle.ErrUnavailable, coinID)
	}
	return oracle.Quote{CoinID: coinID, Price: p, FetchedAt: time.Now().UTC()}, nil
}

func (o *stubOracle) Calls() int {
	return int(atomic.LoadInt32(&o.calls))
}

func pendingPrediction(id, coinID string, dir models.Direction, price string, age time.Duration) models.Prediction {
	return models.Prediction{
		ID:                  id,
		UserID:              "user-" + id,
		CoinID:              coinID,
		PredictedDirection:  dir,
		PredictionTimestamp: time.Now().UTC().Add(-age),
		PriceAtPrediction:   decimal.RequireFromString(price),
		Status:              models.StatusPending,
	}
}
