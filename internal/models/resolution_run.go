package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResolutionRun is the persisted summary of one resolution pass.
type ResolutionRun struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Trigger string `gorm:"type:varchar(20);not null;index" json:"trigger"`

	TotalEligible    int            `gorm:"not null" json:"total_eligible"`
	Resolved         int            `gorm:"not null" json:"resolved"`
	AlreadyResolved  int            `gorm:"not null" json:"already_resolved"`
	NotAttempted     int            `gorm:"not null" json:"not_attempted"`
	Errors           int            `gorm:"not null" json:"errors"`
	ErrorMessages    datatypes.JSON `gorm:"type:jsonb" json:"error_messages"`
	DeadlineExceeded bool           `gorm:"not null;default:false" json:"deadline_exceeded"`

	StartedAt  time.Time `gorm:"type:timestamptz;not null;index" json:"started_at"`
	FinishedAt time.Time `gorm:"type:timestamptz;not null" json:"finished_at"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (ResolutionRun) TableName() string {
	return "resolution_runs"
}
