package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable wraps every failure to obtain a usable price.
var ErrUnavailable = errors.New("price oracle unavailable")

// Oracle returns the current market price for a coin. Implementations do not cache
// and do not retry within a call.
type Oracle interface {
	CurrentPrice(ctx context.Context, coinID string) (Quote, error)
}

type Quote struct {
	CoinID    string
	Price     decimal.Decimal
	Change24h *float64
	FetchedAt time.Time
}

// Market is one row of the market-cap ordered coin listing.
type Market struct {
	CoinID         string          `json:"coin_id"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	ImageURL       string          `json:"image_url,omitempty"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	MarketCapRank  int             `json:"market_cap_rank"`
	PriceChange24h *float64        `json:"price_change_percentage_24h,omitempty"`
}
