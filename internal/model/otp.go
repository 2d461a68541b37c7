package model

import (
	"time"

	"gorm.io/gorm"
)

// OtpType enumerates the purposes a one-time code can be issued for
type OtpType string

const (
	OtpTypeLogin         OtpType = "LOGIN"
	OtpTypeVerification  OtpType = "VERIFICATION"
	OtpTypePasswordReset OtpType = "PASSWORD_RESET"
)

type Otp struct {
	gorm.Model
	UserID    uint      `gorm:"column:user_id;not null;index"`
	Code      string    `gorm:"column:code;not null"`
	Type      OtpType   `gorm:"column:type;type:varchar(16);not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	IsUsed    bool      `gorm:"column:is_used;default:false;not null"`
}

// IsValid reports whether the code is still consumable at the given instant
func (o *Otp) IsValid(now time.Time) bool {
	return !o.IsUsed && o.ExpiresAt.After(now)
}
