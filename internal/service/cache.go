package service

import (
	"context"
	"fmt"
	"time"

	"github.com/phamtung-23/auth-service/internal/constants"
	"github.com/phamtung-23/auth-service/internal/dto"
	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"github.com/phamtung-23/auth-service/pkg/redis"
)

const userProfileTTL = 5 * time.Minute

// CacheService caches user profiles in Redis. Every method degrades to a
// no-op / cache miss when Redis is disabled, so callers never branch on it.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) userKey(userID uint) string {
	return fmt.Sprintf("%s%d", constants.CacheKeyUser, userID)
}

// GetUserProfile returns the cached profile, or nil on a miss
func (s *CacheService) GetUserProfile(ctx context.Context, userID uint) *dto.UserResponse {
	ctx = ctxutil.NewContext(ctx, "service", "CacheService.GetUserProfile")

	var profile dto.UserResponse
	found, err := s.client.Get(ctx, s.userKey(userID), &profile)
	if err != nil {
		logger.WarnWithContext(ctx, "Cache read failed, falling through to database").
			Uint("user_id", userID).
			Err(err).
			Log()
		return nil
	}
	if !found {
		return nil
	}

	return &profile
}

// SetUserProfile caches a profile, logging rather than failing on error
func (s *CacheService) SetUserProfile(ctx context.Context, profile *dto.UserResponse) {
	ctx = ctxutil.NewContext(ctx, "service", "CacheService.SetUserProfile")

	if err := s.client.Set(ctx, s.userKey(profile.ID), profile, userProfileTTL); err != nil {
		logger.WarnWithContext(ctx, "Cache write failed").
			Uint("user_id", profile.ID).
			Err(err).
			Log()
	}
}

// InvalidateUser drops the cached profile after a mutation
func (s *CacheService) InvalidateUser(ctx context.Context, userID uint) {
	ctx = ctxutil.NewContext(ctx, "service", "CacheService.InvalidateUser")

	if err := s.client.Delete(ctx, s.userKey(userID)); err != nil {
		logger.WarnWithContext(ctx, "Cache invalidation failed").
			Uint("user_id", userID).
			Err(err).
			Log()
	}
}
