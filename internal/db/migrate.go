package db

import (
	"coinpredict/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Prediction{},
		&models.ManagedCoin{},
		&models.ResolutionRun{},
		&models.SystemSetting{},
	)
}
