package repository

import (
	"context"
	"time"

	"github.com/phamtung-23/auth-service/internal/model"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OtpRepository struct {
	db *gorm.DB
}

func NewOtpRepository(db *gorm.DB) *OtpRepository {
	return &OtpRepository{db: db}
}

func (r *OtpRepository) Create(ctx context.Context, otp *model.Otp) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Create(otp).Error
	duration := time.Since(start)

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to create OTP",
			zap.Uint("user_id", otp.UserID),
			zap.String("type", string(otp.Type)),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
		return err
	}

	logger.GetLogger().Info("Repository: OTP created",
		zap.Uint("user_id", otp.UserID),
		zap.String("type", string(otp.Type)),
		zap.Duration("query_duration", duration),
	)
	return nil
}

// InvalidateActive marks every unconsumed code of the given type as used,
// so only the most recently issued code can succeed.
func (r *OtpRepository) InvalidateActive(ctx context.Context, userID uint, otpType model.OtpType) error {
	start := time.Now()
	err := r.db.WithContext(ctx).
		Model(&model.Otp{}).
		Where("user_id = ? AND type = ? AND is_used = ?", userID, otpType, false).
		Update("is_used", true).Error
	duration := time.Since(start)

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to invalidate active OTPs",
			zap.Uint("user_id", userID),
			zap.String("type", string(otpType)),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
	}
	return err
}

// FindActive returns the latest unconsumed, unexpired code for the user and
// type, or gorm.ErrRecordNotFound when none exists.
func (r *OtpRepository) FindActive(ctx context.Context, userID uint, otpType model.OtpType) (*model.Otp, error) {
	start := time.Now()
	var otp model.Otp
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND is_used = ? AND expires_at > ?",
			userID, otpType, false, time.Now()).
		Order("created_at DESC").
		First(&otp).Error
	duration := time.Since(start)

	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.GetLogger().Error("Repository: Failed to find active OTP",
				zap.Uint("user_id", userID),
				zap.String("type", string(otpType)),
				zap.Duration("query_duration", duration),
				zap.Error(err),
			)
		}
		return nil, err
	}

	return &otp, nil
}

// MarkUsed consumes a code. The is_used guard makes consumption atomic:
// exactly one of two concurrent attempts wins.
func (r *OtpRepository) MarkUsed(ctx context.Context, otpID uint) error {
	start := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Otp{}).
		Where("id = ? AND is_used = ?", otpID, false).
		Update("is_used", true)
	duration := time.Since(start)

	if result.Error != nil {
		logger.GetLogger().Error("Repository: Failed to mark OTP used",
			zap.Uint("otp_id", otpID),
			zap.Duration("query_duration", duration),
			zap.Error(result.Error),
		)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DeleteExpired hard-deletes codes that expired before the retention cutoff
// and returns the number of rows removed.
func (r *OtpRepository) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	start := time.Now()
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("expires_at < ?", cutoff).
		Delete(&model.Otp{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.GetLogger().Error("Repository: Failed to delete expired OTPs",
			zap.Duration("query_duration", duration),
			zap.Error(result.Error),
		)
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.GetLogger().Info("Repository: Expired OTPs deleted",
			zap.Int64("deleted", result.RowsAffected),
			zap.Duration("query_duration", duration),
		)
	}
	return result.RowsAffected, nil
}
