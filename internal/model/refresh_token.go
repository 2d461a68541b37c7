package model

import (
	"time"

	"gorm.io/gorm"
)

type RefreshToken struct {
	gorm.Model
	UserID    uint      `gorm:"column:user_id;not null;index"`
	Token     string    `gorm:"column:token;unique;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	IsRevoked bool      `gorm:"column:is_revoked;default:false;not null"`
	UserAgent string    `gorm:"column:user_agent"`
	IPAddress string    `gorm:"column:ip_address"`
}

// IsExpired reports whether the stored expiry has passed
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
