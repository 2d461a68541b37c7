package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/phamtung-23/auth-service/internal/errors"
	"github.com/phamtung-23/auth-service/internal/model"
)

func seedUser(t *testing.T, env *testEnv) *model.User {
	t.Helper()
	user := &model.User{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Password:        "$2a$10$unusedhashunusedhashunusedhashun",
		Role:            model.RoleCustomer,
		IsActive:        true,
		IsEmailVerified: true,
	}
	if err := env.userStore.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func TestIssueSessionReturnsDistinctTokens(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	pair, err := env.tokens.IssueSession(ctx, user, DeviceMeta{UserAgent: "test", IPAddress: "127.0.0.1"})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if pair.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Fatalf("expected 900s access lifetime, got %d", pair.ExpiresIn)
	}

	stored, err := env.tokenStore.FindByToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("expected refresh token to be persisted: %v", err)
	}
	if stored.UserAgent != "test" || stored.IPAddress != "127.0.0.1" {
		t.Error("expected device metadata to be stored")
	}
}

func TestParseAccessTokenRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	pair, err := env.tokens.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	claims, err := env.tokens.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected user id %d, got %d", user.ID, claims.UserID)
	}
	if claims.Email != user.Email {
		t.Errorf("expected email %s, got %s", user.Email, claims.Email)
	}
	if claims.Role != model.RoleCustomer {
		t.Errorf("expected role CUSTOMER, got %s", claims.Role)
	}
}

func TestParseAccessTokenRejectsRefreshToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	pair, err := env.tokens.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	if _, err := env.tokens.ParseAccessToken(pair.RefreshToken); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected refresh token to be rejected as access token, got %v", err)
	}
}

func TestParseAccessTokenRejectsForgedToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	other := NewTokenService("other-secret", 15*time.Minute, 7*24*time.Hour, 30*24*time.Hour, env.tokenStore, env.userStore)
	pair, err := other.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	if _, err := env.tokens.ParseAccessToken(pair.AccessToken); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected wrong-key token to be rejected, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	pair, err := env.tokens.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	next, owner, err := env.tokens.Refresh(ctx, pair.RefreshToken, DeviceMeta{UserAgent: "new-device"})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if owner.ID != user.ID {
		t.Errorf("expected owner %d, got %d", user.ID, owner.ID)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	// The presented token is single-use
	if _, _, err := env.tokens.Refresh(ctx, pair.RefreshToken, DeviceMeta{}); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Fatalf("expected rotated token to be revoked, got %v", err)
	}

	// The replacement works
	if _, _, err := env.tokens.Refresh(ctx, next.RefreshToken, DeviceMeta{}); err != nil {
		t.Fatalf("expected replacement token to refresh, got %v", err)
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	// Cryptographically valid but never persisted
	orphan := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour, 30*24*time.Hour, newFakeTokenStore(), env.userStore)
	pair, err := orphan.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	if _, _, err := env.tokens.Refresh(ctx, pair.RefreshToken, DeviceMeta{}); !errors.Is(err, apperrors.ErrTokenNotFound) {
		t.Fatalf("expected unknown token rejection, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	pair, err := env.tokens.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	if _, _, err := env.tokens.Refresh(ctx, pair.AccessToken, DeviceMeta{}); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Fatalf("expected access token to be rejected for refresh, got %v", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	pair, err := env.tokens.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	stored, err := env.tokenStore.FindByToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("failed to load stored token: %v", err)
	}
	env.tokenStore.mu.Lock()
	env.tokenStore.tokens[stored.ID].ExpiresAt = time.Now().Add(-time.Minute)
	env.tokenStore.mu.Unlock()

	if _, _, err := env.tokens.Refresh(ctx, pair.RefreshToken, DeviceMeta{}); !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
}

func TestRefreshRejectsDisabledUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	pair, err := env.tokens.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	env.userStore.mu.Lock()
	env.userStore.users[user.ID].IsActive = false
	env.userStore.mu.Unlock()

	if _, _, err := env.tokens.Refresh(ctx, pair.RefreshToken, DeviceMeta{}); !errors.Is(err, apperrors.ErrAccountDisabled) {
		t.Fatalf("expected disabled account rejection, got %v", err)
	}
}

func TestConcurrentRefreshExactlyOneWins(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	pair, err := env.tokens.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, results[i] = env.tokens.Refresh(ctx, pair.RefreshToken, DeviceMeta{})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, apperrors.ErrTokenRevoked) {
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one rotation to win, got %d", wins)
	}
}

func TestRevokeAllEndsEverySession(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	for i := 0; i < 3; i++ {
		if _, err := env.tokens.IssueSession(ctx, user, DeviceMeta{}); err != nil {
			t.Fatalf("issue session %d failed: %v", i, err)
		}
	}

	revoked, err := env.tokens.RevokeAll(ctx, user.ID)
	if err != nil {
		t.Fatalf("revoke all failed: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("expected 3 revoked sessions, got %d", revoked)
	}
	if env.tokenStore.activeCount(user.ID) != 0 {
		t.Fatal("expected no active sessions left")
	}
}

func TestTokenCleanupRemovesStaleRows(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := seedUser(t, env)

	pair, err := env.tokens.IssueSession(ctx, user, DeviceMeta{})
	if err != nil {
		t.Fatalf("issue session failed: %v", err)
	}

	stored, err := env.tokenStore.FindByToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("failed to load stored token: %v", err)
	}
	env.tokenStore.mu.Lock()
	env.tokenStore.tokens[stored.ID].ExpiresAt = time.Now().Add(-time.Hour)
	env.tokenStore.mu.Unlock()

	deleted, err := env.tokens.Cleanup(ctx)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted token, got %d", deleted)
	}
}
