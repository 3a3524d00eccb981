package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the predicted price move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts exactly "up" or "down"; case and padding are not forgiven.
func ParseDirection(raw string) (Direction, error) {
	switch d := Direction(raw); d {
	case DirectionUp, DirectionDown:
		return d, nil
	default:
		return "", fmt.Errorf("invalid direction %q (want up|down)", raw)
	}
}

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// PredictionStatus is write-once: it leaves pending exactly once and then never changes.
type PredictionStatus string

const (
	StatusPending   PredictionStatus = "pending"
	StatusCorrect   PredictionStatus = "correct"
	StatusIncorrect PredictionStatus = "incorrect"
	// StatusErrorResolving is reserved; no code path assigns it yet.
	StatusErrorResolving PredictionStatus = "error_resolving"
)

func ParseStatus(raw string) (PredictionStatus, error) {
	switch s := PredictionStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusCorrect, StatusIncorrect, StatusErrorResolving:
		return s, nil
	default:
		return "", fmt.Errorf("invalid status %q", raw)
	}
}

// Terminal reports whether the status is a resolved (final) state.
func (s PredictionStatus) Terminal() bool {
	switch s {
	case StatusCorrect, StatusIncorrect, StatusErrorResolving:
		return true
	case StatusPending:
		return false
	default:
		return false
	}
}

// Scored reports whether the status counts towards the leaderboard.
func (s PredictionStatus) Scored() bool {
	return s == StatusCorrect || s == StatusIncorrect
}

type Prediction struct {
	ID                  string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID              string           `gorm:"type:varchar(128);not null;index" json:"user_id"`
	CoinID              string           `gorm:"type:varchar(100);not null;index" json:"coin_id"`
	PredictedDirection  Direction        `gorm:"type:varchar(8);not null" json:"predicted_direction"`
	PredictionTimestamp time.Time        `gorm:"type:timestamptz;not null;index:idx_predictions_status_ts,priority:2" json:"prediction_timestamp"`
	PriceAtPrediction   decimal.Decimal  `gorm:"type:numeric(30,10);not null" json:"price_at_prediction"`
	PriceAtResolution   *decimal.Decimal `gorm:"type:numeric(30,10)" json:"price_at_resolution"`
	Status              PredictionStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_predictions_status_ts,priority:1" json:"status"`
	ResolvedAt          *time.Time       `gorm:"type:timestamptz;index" json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Prediction) TableName() string {
	return "predictions"
}

// PriceScale is the number of decimal places the price columns keep.
const PriceScale int32 = 10

// NormalizePrice rounds a price to what the price columns store, so checks and
// comparisons run on the value that is actually persisted.
func NormalizePrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}
