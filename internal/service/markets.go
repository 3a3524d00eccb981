package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"coinpredict/internal/cache"
	"coinpredict/internal/config"
	"coinpredict/internal/oracle"
)

const (
	topCoinsCacheKey = "markets:top"
	// topCoinsStaleKey holds the last good listing, served when the price API fails.
	topCoinsStaleKey = "markets:top:last_good"
)

// MarketLister is the slice of the price API the market listing needs.
type MarketLister interface {
	TopMarkets(ctx context.Context, limit int) ([]oracle.Market, error)
}

type MarketService struct {
	Source MarketLister
	Cache  cache.Store
	Logger *zap.Logger

	TopN        int
	FetchLimit  int
	TTL         time.Duration
	StaleTTL    time.Duration
	stablecoins map[string]struct{}
}

func NewMarketService(src MarketLister, store cache.Store, cfg config.MarketsConfig, logger *zap.Logger) *MarketService {
	stable := make(map[string]struct{}, len(cfg.Stablecoins))
	for _, s := range cfg.Stablecoins {
		stable[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MarketService{
		Source:      src,
		Cache:       store,
		Logger:      logger,
		TopN:        cfg.TopN,
		FetchLimit:  cfg.FetchLimit,
		TTL:         ttl,
		StaleTTL:    cfg.StaleTTL,
		stablecoins: stable,
	}
}

// TopCoins returns the largest non-stable coins by market cap.
func (s *MarketService) TopCoins(ctx context.Context) ([]oracle.Market, error) {
	var cached []oracle.Market
	if found, err := cache.GetJSON(ctx, s.Cache, topCoinsCacheKey, &cached); err == nil && found {
		return cached, nil
	} else if err != nil && s.Logger != nil {
		s.Logger.Warn("market cache read failed", zap.Error(err))
	}

	fetchLimit := s.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = 20
	}
	rows, err := s.Source.TopMarkets(ctx, fetchLimit)
	if err != nil {
		var stale []oracle.Market
		if found, cerr := cache.GetJSON(ctx, s.Cache, topCoinsStaleKey, &stale); cerr == nil && found {
			if s.Logger != nil {
				s.Logger.Warn("market source failed, serving last good listing", zap.Error(err))
			}
			return stale, nil
		}
		return nil, err
	}
	topN := s.TopN
	if topN <= 0 {
		topN = 8
	}
	out := make([]oracle.Market, 0, topN)
	for _, m := range rows {
		if s.isStable(m) {
			continue
		}
		out = append(out, m)
		if len(out) == topN {
			break
		}
	}
	if err := cache.SetJSON(ctx, s.Cache, topCoinsCacheKey, out, s.TTL); err != nil && s.Logger != nil {
		s.Logger.Warn("market cache write failed", zap.Error(err))
	}
	if s.StaleTTL > 0 {
		if err := cache.SetJSON(ctx, s.Cache, topCoinsStaleKey, out, s.StaleTTL); err != nil && s.Logger != nil {
			s.Logger.Warn("market cache write failed", zap.Error(err), zap.String("key", topCoinsStaleKey))
		}
	}
	return out, nil
}

func (s *MarketService) isStable(m oracle.Market) bool {
	id := strings.ToLower(m.CoinID)
	symbol := strings.ToLower(m.Symbol)
	if _, ok := s.stablecoins[id]; ok {
		return true
	}
	if _, ok := s.stablecoins[symbol]; ok {
		return true
	}
	return strings.Contains(symbol, "usd")
}
