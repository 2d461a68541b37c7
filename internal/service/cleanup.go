package service

import (
	"context"
	"time"

	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"github.com/phamtung-23/auth-service/pkg/logger"
)

// CleanupService periodically purges expired OTPs and stale refresh tokens
type CleanupService struct {
	otps     *OtpService
	tokens   *TokenService
	interval time.Duration
}

func NewCleanupService(otps *OtpService, tokens *TokenService, interval time.Duration) *CleanupService {
	return &CleanupService{
		otps:     otps,
		tokens:   tokens,
		interval: interval,
	}
}

// Start runs the cleanup loop until the context is cancelled. One pass runs
// immediately so a restart does not postpone overdue cleanup by a full
// interval.
func (s *CleanupService) Start(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.GetLogger().Info("Cleanup loop stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *CleanupService) runOnce(ctx context.Context) {
	ctx = ctxutil.NewContext(ctx, "service", "CleanupService.runOnce")
	start := time.Now()

	otpsDeleted, err := s.otps.CleanupExpired(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "OTP cleanup failed").
			Err(err).
			Log()
	}

	tokensDeleted, err := s.tokens.Cleanup(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "Refresh token cleanup failed").
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "Cleanup pass finished").
		Int64("otps_deleted", otpsDeleted).
		Int64("tokens_deleted", tokensDeleted).
		Duration(time.Since(start)).
		Log()
}
