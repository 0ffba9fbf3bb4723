package models

import (
	"time"
)

// Referral records a credited invitation. InvitedID is unique, so a user
// can only ever earn their referrer one point.
type Referral struct {
	ID         uint  `gorm:"primaryKey"`
	ReferrerID int64 `gorm:"not null;index"`
	InvitedID  int64 `gorm:"not null;uniqueIndex"`
	CreatedAt  time.Time
}
