package repository

import (
	"context"
	"time"

	"github.com/phamtung-23/auth-service/internal/model"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Create(token).Error
	duration := time.Since(start)

	if err != nil {
		logger.GetLogger().Error("Repository: Failed to create refresh token",
			zap.Uint("user_id", token.UserID),
			zap.Duration("query_duration", duration),
			zap.Error(err),
		)
		return err
	}

	logger.GetLogger().Info("Repository: Refresh token created",
		zap.Uint("user_id", token.UserID),
		zap.Duration("query_duration", duration),
	)
	return nil
}

func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	start := time.Now()
	var stored model.RefreshToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&stored).Error
	duration := time.Since(start)

	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.GetLogger().Error("Repository: Failed to find refresh token",
				zap.Duration("query_duration", duration),
				zap.Error(err),
			)
		}
		return nil, err
	}

	return &stored, nil
}

// Revoke marks a token revoked. The is_revoked guard means exactly one of
// two concurrent revocations succeeds; the loser gets
// gorm.ErrRecordNotFound.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenID uint) error {
	start := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("id = ? AND is_revoked = ?", tokenID, false).
		Update("is_revoked", true)
	duration := time.Since(start)

	if result.Error != nil {
		logger.GetLogger().Error("Repository: Failed to revoke refresh token",
			zap.Uint("token_id", tokenID),
			zap.Duration("query_duration", duration),
			zap.Error(result.Error),
		)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.GetLogger().Info("Repository: Refresh token revoked",
		zap.Uint("token_id", tokenID),
		zap.Duration("query_duration", duration),
	)
	return nil
}

// Rotate revokes the old token and stores its replacement in a single
// transaction. When the old token was already revoked the transaction rolls
// back and no replacement is persisted, which defeats concurrent reuse of a
// stolen refresh token.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldTokenID uint, next *model.RefreshToken) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.RefreshToken{}).
			Where("id = ? AND is_revoked = ?", oldTokenID, false).
			Update("is_revoked", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(next).Error
	})
	duration := time.Since(start)

	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.GetLogger().Error("Repository: Failed to rotate refresh token",
				zap.Uint("old_token_id", oldTokenID),
				zap.Duration("query_duration", duration),
				zap.Error(err),
			)
		}
		return err
	}

	logger.GetLogger().Info("Repository: Refresh token rotated",
		zap.Uint("old_token_id", oldTokenID),
		zap.Uint("new_token_id", next.ID),
		zap.Duration("query_duration", duration),
	)
	return nil
}

// RevokeAllForUser revokes every active token the user holds and returns
// how many sessions were ended.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	start := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true)
	duration := time.Since(start)

	if result.Error != nil {
		logger.GetLogger().Error("Repository: Failed to revoke user tokens",
			zap.Uint("user_id", userID),
			zap.Duration("query_duration", duration),
			zap.Error(result.Error),
		)
		return 0, result.Error
	}

	logger.GetLogger().Info("Repository: All user tokens revoked",
		zap.Uint("user_id", userID),
		zap.Int64("revoked", result.RowsAffected),
		zap.Duration("query_duration", duration),
	)
	return result.RowsAffected, nil
}

// DeleteExpired hard-deletes tokens that expired, plus revoked tokens older
// than the retention cutoff.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	now := time.Now()
	cutoff := now.Add(-retention)

	start := time.Now()
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("expires_at < ? OR (is_revoked = ? AND updated_at < ?)", now, true, cutoff).
		Delete(&model.RefreshToken{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.GetLogger().Error("Repository: Failed to delete stale refresh tokens",
			zap.Duration("query_duration", duration),
			zap.Error(result.Error),
		)
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.GetLogger().Info("Repository: Stale refresh tokens deleted",
			zap.Int64("deleted", result.RowsAffected),
			zap.Duration("query_duration", duration),
		)
	}
	return result.RowsAffected, nil
}
