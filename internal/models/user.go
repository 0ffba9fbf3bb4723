package models

import (
	"time"
)

// User is one bot user. Score counts the referrals credited to them.
type User struct {
	ID         uint   `gorm:"primaryKey"`
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	Username   string `gorm:"size:255"`
	ReferrerID *int64 `gorm:"index"` // telegram id of the inviter, fixed at creation
	Score      int64  `gorm:"not null;default:0;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
