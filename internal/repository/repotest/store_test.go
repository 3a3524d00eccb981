package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coinpredict/internal/models"
	"coinpredict/internal/repository"
)

func TestResolveIfPending_SingleWinner(t *testing.T) {
	s := New()
	s.Seed(models.Prediction{ID: "p1", UserID: "u", CoinID: "bitcoin", PredictedDirection: models.DirectionUp, PredictionTimestamp: time.Now().Add(-48 * time.Hour), PriceAtPrediction: decimal.NewFromInt(1)})

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, skips := 0, 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ResolveIfPending(context.Background(), "p1", models.StatusCorrect, decimal.NewFromInt(2), time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, repository.ErrAlreadyResolved):
				skips++
			default:
				t.Errorf("unexpected err=%v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 || skips != 15 {
		t.Fatalf("wins=%d skips=%d", wins, skips)
	}
}

func TestResolveIfPending_RejectsPendingTarget(t *testing.T) {
	s := New()
	s.Seed(models.Prediction{ID: "p1"})
	err := s.ResolveIfPending(context.Background(), "p1", models.StatusPending, decimal.Zero, time.Now())
	if !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("err=%v want ErrInvalidTransition", err)
	}
}

func TestListEligiblePending_CutoffAndOrder(t *testing.T) {
	now := time.Now().UTC()
	s := New()
	s.Seed(
		models.Prediction{ID: "b", PredictionTimestamp: now.Add(-30 * time.Hour)},
		models.Prediction{ID: "a", PredictionTimestamp: now.Add(-30 * time.Hour)},
		models.Prediction{ID: "c", PredictionTimestamp: now.Add(-25 * time.Hour)},
		models.Prediction{ID: "young", PredictionTimestamp: now.Add(-time.Hour)},
		models.Prediction{ID: "done", PredictionTimestamp: now.Add(-40 * time.Hour), Status: models.StatusCorrect},
	)
	items, err := s.ListEligiblePending(context.Background(), now.Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	got := []string{}
	for _, it := range items {
		got = append(got, it.ID)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got=%v want=%v", got, want)
		}
	}
}
