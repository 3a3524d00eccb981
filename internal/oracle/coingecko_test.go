package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinpredict/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *CoinGecko {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewCoinGecko(config.OracleConfig{BaseURL: srv.URL, VsCurrency: "usd", Timeout: 2 * time.Second})
}

func TestCurrentPrice_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if r.URL.Query().Get("ids") != "bitcoin" {
			t.Errorf("ids=%s", r.URL.Query().Get("ids"))
		}
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":67012.123456789,"usd_24h_change":-1.5}}`))
	})
	q, err := c.CurrentPrice(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if q.Price.String() != "67012.123456789" {
		t.Fatalf("price=%s", q.Price)
	}
	if q.Change24h == nil || *q.Change24h != -1.5 {
		t.Fatalf("change=%v", q.Change24h)
	}
}

func TestCurrentPrice_Failures(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }},
		{"malformed", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"bitcoin":`)) }},
		{"missing id", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{}`)) }},
		{"missing currency", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"bitcoin":{}}`)) }},
		{"negative", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"bitcoin":{"usd":-1}}`)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.h)
			_, err := c.CurrentPrice(context.Background(), "bitcoin")
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("err=%v want ErrUnavailable", err)
			}
		})
	}
}

func TestCurrentPrice_StatusIsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.CurrentPrice(context.Background(), "bitcoin")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("err=%v", err)
	}
}

func TestCurrentPrice_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":1}}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CurrentPrice(ctx, "bitcoin"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
}

func TestTopMarkets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if r.URL.Query().Get("per_page") != "3" {
			t.Errorf("per_page=%s", r.URL.Query().Get("per_page"))
		}
		_, _ = w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":67000,"market_cap_rank":1,"price_change_percentage_24h":2.1},
			{"id":"tether","symbol":"usdt","name":"Tether","current_price":1.0,"market_cap_rank":3,"price_change_percentage_24h":null},
			{"id":"","symbol":"x","name":"broken","current_price":1}
		]`))
	})
	items, err := c.TopMarkets(context.Background(), 3)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len=%d want=2", len(items))
	}
	if items[0].CoinID != "bitcoin" || items[0].MarketCapRank != 1 {
		t.Fatalf("first=%+v", items[0])
	}
	if items[1].PriceChange24h != nil {
		t.Fatalf("expected nil change for null")
	}
}
