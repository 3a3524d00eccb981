package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"coinpredict/internal/config"
)

// APIError is a non-2xx answer from the price API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko api error: status=%d body=%s", e.StatusCode, e.Body)
}

type CoinGecko struct {
	http       *resty.Client
	limiter    *rate.Limiter
	vsCurrency string
	now        func() time.Time
}

func NewCoinGecko(cfg config.OracleConfig) *CoinGecko {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	vs := strings.ToLower(strings.TrimSpace(cfg.VsCurrency))
	if vs == "" {
		vs = "usd"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "coinpredict/1.0")
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		header := strings.TrimSpace(cfg.APIKeyHeader)
		if header == "" {
			header = "x-cg-demo-api-key"
		}
		client.SetHeader(header, key)
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &CoinGecko{
		http:       client,
		limiter:    rate.NewLimiter(limit, burst),
		vsCurrency: vs,
		now:        time.Now,
	}
}

var _ Oracle = (*CoinGecko)(nil)

func (c *CoinGecko) CurrentPrice(ctx context.Context, coinID string) (Quote, error) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return Quote{}, fmt.Errorf("%w: empty coin id", ErrUnavailable)
	}
	body, err := c.get(ctx, "/simple/price", map[string]string{
		"ids":                 coinID,
		"vs_currencies":       c.vsCurrency,
		"include_24hr_change": "true",
	})
	if err != nil {
		return Quote{}, err
	}

	var payload map[string]map[string]json.Number
	if err := decode(body, &payload); err != nil {
		return Quote{}, fmt.Errorf("%w: decode price for %s: %v", ErrUnavailable, coinID, err)
	}
	fields, ok := payload[coinID]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s missing from response", ErrUnavailable, coinID)
	}
	raw := fields[c.vsCurrency]
	if raw == "" {
		return Quote{}, fmt.Errorf("%w: %s has no %s price", ErrUnavailable, coinID, c.vsCurrency)
	}
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return Quote{}, fmt.Errorf("%w: parse price %q: %v", ErrUnavailable, raw, err)
	}
	if price.IsNegative() {
		return Quote{}, fmt.Errorf("%w: negative price %s for %s", ErrUnavailable, price, coinID)
	}
	return Quote{
		CoinID:    coinID,
		Price:     price,
		Change24h: numberPtr(fields[c.vsCurrency+"_24h_change"]),
		FetchedAt: c.now().UTC(),
	}, nil
}

type marketRow struct {
	ID                       string      `json:"id"`
	Symbol                   string      `json:"symbol"`
	Name                     string      `json:"name"`
	Image                    string      `json:"image"`
	CurrentPrice             json.Number `json:"current_price"`
	MarketCapRank            json.Number `json:"market_cap_rank"`
	PriceChangePercentage24h json.Number `json:"price_change_percentage_24h"`
}

// TopMarkets lists coins by market cap, largest first.
func (c *CoinGecko) TopMarkets(ctx context.Context, limit int) ([]Market, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 250 {
		limit = 250
	}
	body, err := c.get(ctx, "/coins/markets", map[string]string{
		"vs_currency": c.vsCurrency,
		"order":       "market_cap_desc",
		"per_page":    strconv.Itoa(limit),
		"page":        "1",
		"sparkline":   "false",
	})
	if err != nil {
		return nil, err
	}
	var rows []marketRow
	if err := decode(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode markets: %v", ErrUnavailable, err)
	}
	out := make([]Market, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.ID) == "" {
			continue
		}
		price, err := decimal.NewFromString(r.CurrentPrice.String())
		if err != nil {
			continue
		}
		rank, _ := strconv.Atoi(r.MarketCapRank.String())
		out = append(out, Market{
			CoinID:         r.ID,
			Symbol:         r.Symbol,
			Name:           r.Name,
			ImageURL:       r.Image,
			CurrentPrice:   price,
			MarketCapRank:  rank,
			PriceChange24h: numberPtr(r.PriceChangePercentage24h),
		})
	}
	return out, nil
}

func (c *CoinGecko) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUnavailable, err)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	if !resp.IsSuccess() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 256)}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, apiErr)
	}
	return resp.Body(), nil
}

func decode(body []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(out)
}

func numberPtr(n json.Number) *float64 {
	if n == "" {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return &f
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
