package gormrepository

import (
	"context"

	"coinpredict/internal/models"
)

func (s *Store) InsertResolutionRun(ctx context.Context, item *models.ResolutionRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListResolutionRuns(ctx context.Context, limit, offset int) ([]models.ResolutionRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ResolutionRun
	err := s.db.WithContext(ctx).
		Model(&models.ResolutionRun{}).
		Order("started_at desc").
		Order("id desc").
		Limit(normalizeLimit(limit, 50)).
		Offset(normalizeOffset(offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
