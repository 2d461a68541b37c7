package database

import (
	"github.com/phamtung-23/auth-service/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Otp{},
		&model.RefreshToken{},
	)
}
