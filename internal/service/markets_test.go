package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coinpredict/internal/cache"
	"coinpredict/internal/config"
	"coinpredict/internal/oracle"
)

type stubMarkets struct {
	rows  []oracle.Market
	err   error
	calls int
}

func (s *stubMarkets) TopMarkets(context.Context, int) ([]oracle.Market, error) {
	s.calls++
	return s.rows, s.err
}

func market(id, symbol string) oracle.Market {
	return oracle.Market{CoinID: id, Symbol: symbol, Name: id, CurrentPrice: decimal.NewFromInt(1)}
}

func TestTopCoins_FiltersStablesAndCaches(t *testing.T) {
	src := &stubMarkets{rows: []oracle.Market{
		market("bitcoin", "btc"),
		market("tether", "usdt"),
		market("ethereum", "eth"),
		market("usd-coin", "usdc"),
		market("dai", "dai"),
		market("first-digital-usd", "fdusd"),
		market("solana", "sol"),
		market("ripple", "xrp"),
	}}
	svc := NewMarketService(src, cache.NewMemoryStore(), config.MarketsConfig{
		TopN:        3,
		FetchLimit:  20,
		CacheTTL:    time.Minute,
		Stablecoins: []string{"usdt", "usdc", "dai"},
	}, nil)

	got, err := svc.TopCoins(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := []string{"bitcoin", "ethereum", "solana"}
	if len(got) != len(want) {
		t.Fatalf("got=%+v", got)
	}
	for i := range want {
		if got[i].CoinID != want[i] {
			t.Fatalf("got[%d]=%s want=%s", i, got[i].CoinID, want[i])
		}
	}

	if _, err := svc.TopCoins(context.Background()); err != nil {
		t.Fatalf("cached call err=%v", err)
	}
	if src.calls != 1 {
		t.Fatalf("source calls=%d want=1", src.calls)
	}
}

func TestTopCoins_SourceFailure(t *testing.T) {
	src := &stubMarkets{err: oracle.ErrUnavailable}
	svc := NewMarketService(src, cache.NewMemoryStore(), config.MarketsConfig{}, nil)
	if _, err := svc.TopCoins(context.Background()); !errors.Is(err, oracle.ErrUnavailable) {
		t.Fatalf("err=%v", err)
	}
}

func TestTopCoins_ServesLastGoodListingWhenSourceFails(t *testing.T) {
	store := cache.NewMemoryStore()
	src := &stubMarkets{rows: []oracle.Market{market("bitcoin", "btc")}}
	svc := NewMarketService(src, store, config.MarketsConfig{CacheTTL: time.Minute, StaleTTL: time.Hour}, nil)
	if _, err := svc.TopCoins(context.Background()); err != nil {
		t.Fatalf("warm err=%v", err)
	}

	// Fresh entry gone, source down: the last good listing answers.
	_ = store.Delete(context.Background(), topCoinsCacheKey)
	src.err = oracle.ErrUnavailable
	got, err := svc.TopCoins(context.Background())
	if err != nil || len(got) != 1 || got[0].CoinID != "bitcoin" {
		t.Fatalf("got=%+v err=%v", got, err)
	}
}
