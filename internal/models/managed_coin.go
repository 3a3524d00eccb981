package models

import "time"

// ManagedCoin is a coin the game lets users predict on.
type ManagedCoin struct {
	ID       string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	CoinID   string  `gorm:"type:varchar(100);not null;uniqueIndex" json:"coin_id"`
	Symbol   string  `gorm:"type:varchar(32);not null" json:"symbol"`
	Name     string  `gorm:"type:varchar(120);not null" json:"name"`
	ImageURL *string `gorm:"type:text" json:"image_url"`
	IsActive bool    `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (ManagedCoin) TableName() string {
	return "managed_coins"
}
