package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	apperrors "github.com/phamtung-23/auth-service/internal/errors"
	"github.com/phamtung-23/auth-service/internal/model"
	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"gorm.io/gorm"
)

// OtpStore is the persistence surface the OTP engine needs
type OtpStore interface {
	Create(ctx context.Context, otp *model.Otp) error
	InvalidateActive(ctx context.Context, userID uint, otpType model.OtpType) error
	FindActive(ctx context.Context, userID uint, otpType model.OtpType) (*model.Otp, error)
	MarkUsed(ctx context.Context, otpID uint) error
	DeleteExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// OtpService issues and validates one-time codes. Validation never consumes
// the code, so consumption can join the caller's follow-on transaction.
type OtpService struct {
	store     OtpStore
	length    int
	ttl       time.Duration
	retention time.Duration
}

func NewOtpService(store OtpStore, length int, ttl, retention time.Duration) *OtpService {
	return &OtpService{
		store:     store,
		length:    length,
		ttl:       ttl,
		retention: retention,
	}
}

// Issue invalidates any prior unused code of the same type and creates a
// fresh one, so at most one code per (user, type) can ever validate.
func (s *OtpService) Issue(ctx context.Context, userID uint, otpType model.OtpType) (*model.Otp, error) {
	ctx = ctxutil.NewContext(ctx, "service", "OtpService.Issue")

	code, err := s.generateCode()
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to generate OTP code").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.store.InvalidateActive(ctx, userID, otpType); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	otp := &model.Otp{
		UserID:    userID,
		Code:      code,
		Type:      otpType,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.store.Create(ctx, otp); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "OTP issued").
		Uint("user_id", userID).
		String("type", string(otpType)).
		Log()

	return otp, nil
}

// Validate finds the active code for (user, type) and compares it against
// the presented code in constant time. Any miss maps to the same error, so
// callers cannot distinguish wrong, expired and consumed codes. The matched
// row is returned WITHOUT being consumed.
func (s *OtpService) Validate(ctx context.Context, userID uint, otpType model.OtpType, code string) (*model.Otp, error) {
	ctx = ctxutil.NewContext(ctx, "service", "OtpService.Validate")

	otp, err := s.store.FindActive(ctx, userID, otpType)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrInvalidOrExpiredOtp
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		logger.WarnWithContext(ctx, "OTP code mismatch").
			Uint("user_id", userID).
			String("type", string(otpType)).
			Log()
		return nil, apperrors.ErrInvalidOrExpiredOtp
	}

	return otp, nil
}

// Consume marks a validated code as used. Exactly one of two concurrent
// consumers wins; the loser gets ErrInvalidOrExpiredOtp.
func (s *OtpService) Consume(ctx context.Context, otpID uint) error {
	ctx = ctxutil.NewContext(ctx, "service", "OtpService.Consume")

	if err := s.store.MarkUsed(ctx, otpID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrInvalidOrExpiredOtp
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

// CleanupExpired removes codes past the retention window
func (s *OtpService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.retention)
}

// generateCode produces a uniformly distributed numeric code, zero-padded
// to the configured length.
func (s *OtpService) generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < s.length; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", s.length, n), nil
}
