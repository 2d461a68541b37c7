package repository

import (
	"context"
	"strings"
	"time"

	"github.com/phamtung-23/auth-service/internal/model"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		logger.GetLogger().Warn("Repository: Context cancelled before creating user",
			zap.String("email", user.Email),
			zap.Error(err),
		)
		return err
	}

	start := time.Now()
	err := r.db.WithContext(ctx).Create(user).Error
	duration := time.Since(start)

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to create user",
			zap.String("email", user.Email),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
		return err
	}

	logger.GetLogger().Info("Repository: User created successfully",
		zap.Uint("user_id", user.ID),
		zap.Duration("query_duration", duration),
	)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	start := time.Now()
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	duration := time.Since(start)

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to get user by ID",
			zap.Uint("user_id", id),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	start := time.Now()
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	duration := time.Since(start)

	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.GetLogger().Error("Repository: Failed to get user by email",
				zap.Duration("query_duration", duration),
				zap.Error(err),
			)
		}
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error {
	start := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword)
	duration := time.Since(start)

	if result.Error != nil {
		logger.GetLogger().Error("Repository: Failed to update password",
			zap.Uint("user_id", userID),
			zap.Duration("query_duration", duration),
			zap.Error(result.Error),
		)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.GetLogger().Info("Repository: Password updated",
		zap.Uint("user_id", userID),
		zap.Duration("query_duration", duration),
	)
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	start := time.Now()
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
	duration := time.Since(start)

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to update last login",
			zap.Uint("user_id", userID),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
	}
	return err
}

// VerifyEmailWithOtp marks the user's email verified and consumes the code
// in one transaction, so a concurrent attempt cannot reuse the same code.
func (r *UserRepository) VerifyEmailWithOtp(ctx context.Context, userID, otpID uint) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		otpResult := tx.Model(&model.Otp{}).
			Where("id = ? AND is_used = ?", otpID, false).
			Update("is_used", true)
		if otpResult.Error != nil {
			return otpResult.Error
		}
		if otpResult.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("is_email_verified", true).Error
	})
	duration := time.Since(start)

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to verify email",
			zap.Uint("user_id", userID),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
		return err
	}

	logger.GetLogger().Info("Repository: Email verified",
		zap.Uint("user_id", userID),
		zap.Duration("query_duration", duration),
	)
	return nil
}

// ResetPasswordWithOtp updates the password and consumes the reset code in
// one transaction.
func (r *UserRepository) ResetPasswordWithOtp(ctx context.Context, userID, otpID uint, hashedPassword string) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		otpResult := tx.Model(&model.Otp{}).
			Where("id = ? AND is_used = ?", otpID, false).
			Update("is_used", true)
		if otpResult.Error != nil {
			return otpResult.Error
		}
		if otpResult.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("password", hashedPassword).Error
	})
	duration := time.Since(start)

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to reset password",
			zap.Uint("user_id", userID),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
		return err
	}

	logger.GetLogger().Info("Repository: Password reset",
		zap.Uint("user_id", userID),
		zap.Duration("query_duration", duration),
	)
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error) {
	start := time.Now()

	query := r.db.WithContext(ctx).Model(&model.User{})
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.GetLogger().Error("Repository: Failed to count users",
			zap.Error(err),
		)
		return nil, 0, err
	}

	var users []model.User
	err := query.Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error
	duration := time.Since(start)

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to list users",
			zap.Int("limit", limit),
			zap.Int("offset", offset),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
		return nil, 0, err
	}

	return users, total, nil
}
