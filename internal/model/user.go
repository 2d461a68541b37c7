package model

import (
	"time"

	"gorm.io/gorm"
)

// Role enumerates the user roles
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

type User struct {
	gorm.Model
	FirstName       string     `gorm:"column:first_name;not null"`
	LastName        string     `gorm:"column:last_name;not null"`
	Email           string     `gorm:"column:email;unique;not null"`
	Password        string     `gorm:"column:password;not null"`
	Role            Role       `gorm:"column:role;type:varchar(16);default:CUSTOMER;not null"`
	IsActive        bool       `gorm:"column:is_active;default:true;not null"`
	IsEmailVerified bool       `gorm:"column:is_email_verified;default:false;not null"`
	LastLoginAt     *time.Time `gorm:"column:last_login_at"`

	Otps          []Otp          `gorm:"constraint:OnDelete:CASCADE"`
	RefreshTokens []RefreshToken `gorm:"constraint:OnDelete:CASCADE"`
}
