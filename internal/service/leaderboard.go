package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"coinpredict/internal/repository"
)

type LeaderboardEntry struct {
	Rank             int     `json:"rank"`
	UserID           string  `json:"user_id"`
	Score            int64   `json:"score"`
	TotalPredictions int64   `json:"total_predictions"`
	Accuracy         float64 `json:"accuracy"`
}

type LeaderboardService struct {
	Repo   repository.LeaderboardReader
	Logger *zap.Logger
}

// Compute ranks users by correct predictions. Ties go to the user with fewer
// resolved predictions, then to the lower user id.
func (s *LeaderboardService) Compute(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if s == nil || s.Repo == nil {
		return []LeaderboardEntry{}, nil
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	rows, err := s.Repo.LeaderboardRows(ctx, limit)
	if err != nil {
		return nil, err
	}

	kept := make([]repository.LeaderboardRow, 0, len(rows))
	for _, r := range rows {
		if r.TotalPredictions <= 0 {
			continue
		}
		if r.Score < 0 || r.Score > r.TotalPredictions {
			if s.Logger != nil {
				s.Logger.Warn("leaderboard row out of range",
					zap.String("user_id", r.UserID),
					zap.Int64("score", r.Score),
					zap.Int64("total_predictions", r.TotalPredictions),
				)
			}
			continue
		}
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool { return rankBefore(kept[i], kept[j]) })

	out := make([]LeaderboardEntry, 0, len(kept))
	for i, r := range kept {
		out = append(out, LeaderboardEntry{
			Rank:             i + 1,
			UserID:           r.UserID,
			Score:            r.Score,
			TotalPredictions: r.TotalPredictions,
			Accuracy:         float64(r.Score) / float64(r.TotalPredictions),
		})
	}
	return out, nil
}

func rankBefore(a, b repository.LeaderboardRow) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TotalPredictions != b.TotalPredictions {
		return a.TotalPredictions < b.TotalPredictions
	}
	return a.UserID < b.UserID
}
