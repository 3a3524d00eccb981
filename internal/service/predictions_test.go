package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coinpredict/internal/models"
	"coinpredict/internal/oracle"
	"coinpredict/internal/repository/repotest"
)

func newPredictionService(t *testing.T) (*PredictionService, *repotest.Store, *stubOracle) {
	t.Helper()
	store := repotest.New()
	ctx := context.Background()
	for _, c := range []models.ManagedCoin{
		{ID: "c1", CoinID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", IsActive: true},
		{ID: "c2", CoinID: "dogecoin", Symbol: "DOGE", Name: "Dogecoin", IsActive: false},
	} {
		c := c
		if err := store.InsertCoin(ctx, &c); err != nil {
			t.Fatalf("seed coin: %v", err)
		}
	}
	o := newStubOracle()
	return &PredictionService{Repo: store, Coins: store, Oracle: o}, store, o
}

func TestCreatePrediction_CapturesOraclePrice(t *testing.T) {
	svc, store, o := newPredictionService(t)
	o.set("bitcoin", "64000.5")

	p, err := svc.Create(context.Background(), CreatePredictionInput{UserID: "u1", CoinID: " Bitcoin ", Direction: models.DirectionUp})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if p.ID == "" || p.Status != models.StatusPending || p.CoinID != "bitcoin" {
		t.Fatalf("p=%+v", p)
	}
	if !p.PriceAtPrediction.Equal(decimal.RequireFromString("64000.5")) {
		t.Fatalf("price=%s", p.PriceAtPrediction)
	}
	if _, ok := store.Prediction(p.ID); !ok {
		t.Fatalf("not stored")
	}
}

func TestCreatePrediction_Rejections(t *testing.T) {
	svc, _, o := newPredictionService(t)
	zero := decimal.Zero
	dust := decimal.RequireFromString("0.00000000004")
	one := decimal.NewFromInt(1)
	cases := []struct {
		name string
		in   CreatePredictionInput
		want error
	}{
		{"missing user", CreatePredictionInput{CoinID: "bitcoin", Direction: models.DirectionUp, PriceAtPrediction: &one}, ErrInvalidInput},
		{"bad direction", CreatePredictionInput{UserID: "u", CoinID: "bitcoin", Direction: "flat", PriceAtPrediction: &one}, ErrInvalidInput},
		{"zero price", CreatePredictionInput{UserID: "u", CoinID: "bitcoin", Direction: models.DirectionUp, PriceAtPrediction: &zero}, ErrInvalidInput},
		{"price rounds to zero", CreatePredictionInput{UserID: "u", CoinID: "bitcoin", Direction: models.DirectionUp, PriceAtPrediction: &dust}, ErrInvalidInput},
		{"unknown coin", CreatePredictionInput{UserID: "u", CoinID: "nope", Direction: models.DirectionUp, PriceAtPrediction: &one}, ErrCoinNotTracked},
		{"inactive coin", CreatePredictionInput{UserID: "u", CoinID: "dogecoin", Direction: models.DirectionUp, PriceAtPrediction: &one}, ErrCoinNotTracked},
		{"oracle down", CreatePredictionInput{UserID: "u", CoinID: "bitcoin", Direction: models.DirectionDown}, oracle.ErrUnavailable},
	}
	o.fail["bitcoin"] = true
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}
}

func TestCreatePrediction_StoresPriceAtColumnScale(t *testing.T) {
	svc, _, o := newPredictionService(t)
	o.set("bitcoin", "0.0000000012345")
	p, err := svc.Create(context.Background(), CreatePredictionInput{UserID: "u1", CoinID: "bitcoin", Direction: models.DirectionDown})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !p.PriceAtPrediction.Equal(decimal.RequireFromString("0.0000000012")) {
		t.Fatalf("price=%s", p.PriceAtPrediction)
	}

	o.set("bitcoin", "0.00000000004")
	if _, err := svc.Create(context.Background(), CreatePredictionInput{UserID: "u1", CoinID: "bitcoin", Direction: models.DirectionUp}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("captured dust price err=%v want ErrInvalidInput", err)
	}
}

func TestCreatePrediction_IntakeDisabled(t *testing.T) {
	svc, store, _ := newPredictionService(t)
	svc.Settings = &SystemSettingsService{Repo: store}
	_ = svc.Settings.SetEnabled(context.Background(), FeaturePredictionIntake, false)
	one := decimal.NewFromInt(1)
	_, err := svc.Create(context.Background(), CreatePredictionInput{UserID: "u", CoinID: "bitcoin", Direction: models.DirectionUp, PriceAtPrediction: &one})
	if !errors.Is(err, ErrIntakeDisabled) {
		t.Fatalf("err=%v want ErrIntakeDisabled", err)
	}
}

func TestUserStats_Streak(t *testing.T) {
	svc, store, _ := newPredictionService(t)
	base := time.Now().UTC().Add(-time.Hour)
	mk := func(id string, st models.PredictionStatus, resolvedAgo time.Duration) models.Prediction {
		p := resolved(id, "u1", st)
		at := base.Add(-resolvedAgo)
		p.ResolvedAt = &at
		return p
	}
	store.Seed(
		mk("old-miss", models.StatusIncorrect, 5*time.Hour),
		mk("hit-1", models.StatusCorrect, 3*time.Hour),
		mk("hit-2", models.StatusCorrect, 2*time.Hour),
		mk("hit-3", models.StatusCorrect, time.Hour),
		models.Prediction{ID: "open", UserID: "u1", Status: models.StatusPending},
		mk("other-user", models.StatusIncorrect, 0),
	)
	// other-user belongs to someone else.
	p, _ := store.Prediction("other-user")
	p.UserID = "u2"
	store.Seed(p)

	stats, err := svc.UserStats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if stats.TotalPredictions != 4 || stats.Correct != 3 || stats.Incorrect != 1 || stats.Pending != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	if stats.CurrentStreak != 3 {
		t.Fatalf("streak=%d want=3", stats.CurrentStreak)
	}
	if stats.Accuracy != 0.75 {
		t.Fatalf("accuracy=%f", stats.Accuracy)
	}
}

func TestListPredictions_BadStatus(t *testing.T) {
	svc, _, _ := newPredictionService(t)
	if _, _, err := svc.List(context.Background(), ListPredictionsInput{Status: "won"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v want ErrInvalidInput", err)
	}
}
