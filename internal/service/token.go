package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/phamtung-23/auth-service/internal/errors"
	"github.com/phamtung-23/auth-service/internal/model"
	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"gorm.io/gorm"
)

// RefreshTokenStore is the persistence surface the token engine needs
type RefreshTokenStore interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, tokenID uint) error
	Rotate(ctx context.Context, oldTokenID uint, next *model.RefreshToken) error
	RevokeAllForUser(ctx context.Context, userID uint) (int64, error)
	DeleteExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// DeviceMeta carries the client fingerprint bound to a session
type DeviceMeta struct {
	UserAgent string
	IPAddress string
}

// TokenPair is a freshly issued session
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // access token lifetime in seconds
}

// AccessClaims are the verified claims of an access token
type AccessClaims struct {
	UserID uint
	Email  string
	Role   model.Role
}

// UserLookup resolves the owner of a refresh token during rotation
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// TokenService mints and rotates JWT sessions. Access tokens are stateless;
// refresh tokens are additionally persisted and single-use.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	retention  time.Duration
	store      RefreshTokenStore
	users      UserLookup
}

func NewTokenService(secret string, accessTTL, refreshTTL, retention time.Duration, store RefreshTokenStore, users UserLookup) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		retention:  retention,
		store:      store,
		users:      users,
	}
}

// IssueSession mints an access/refresh pair and persists the refresh token
// with its device metadata. The access token is never persisted.
func (s *TokenService) IssueSession(ctx context.Context, user *model.User, meta DeviceMeta) (*TokenPair, error) {
	ctx = ctxutil.NewContext(ctx, "service", "TokenService.IssueSession")

	now := time.Now()

	accessToken, err := s.signAccessToken(user, now)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to sign access token").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	refreshToken, expiresAt, err := s.signRefreshToken(user.ID, now)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to sign refresh token").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	stored := &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := s.store.Create(ctx, stored); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

// ParseAccessToken verifies an access token and returns its claims. A
// refresh token presented here is rejected by the typ claim check.
func (s *TokenService) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	if typ, _ := claims["typ"].(string); typ == "refresh" {
		return nil, apperrors.ErrUnauthorized
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &AccessClaims{
		UserID: uint(userID),
		Email:  email,
		Role:   model.Role(role),
	}, nil
}

// Refresh rotates a presented refresh token. Signature verification is
// necessary but not sufficient: the stored row must exist, be unrevoked and
// unexpired. Returns the new pair and the session owner.
func (s *TokenService) Refresh(ctx context.Context, presented string, meta DeviceMeta) (*TokenPair, *model.User, error) {
	ctx = ctxutil.NewContext(ctx, "service", "TokenService.Refresh")

	claims, err := s.parse(presented)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidRefreshToken
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return nil, nil, apperrors.ErrInvalidRefreshToken
	}

	stored, err := s.store.FindByToken(ctx, presented)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, apperrors.ErrTokenNotFound
		}
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if stored.IsRevoked {
		logger.WarnWithContext(ctx, "Revoked refresh token presented").
			Uint("user_id", stored.UserID).
			Uint("token_id", stored.ID).
			Log()
		return nil, nil, apperrors.ErrTokenRevoked
	}

	now := time.Now()
	if stored.IsExpired(now) {
		return nil, nil, apperrors.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, apperrors.ErrUnauthorized
		}
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrAccountDisabled
	}

	refreshToken, expiresAt, err := s.signRefreshToken(user.ID, now)
	if err != nil {
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	next := &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := s.store.Rotate(ctx, stored.ID, next); err != nil {
		if err == gorm.ErrRecordNotFound {
			// A concurrent rotation won the race
			return nil, nil, apperrors.ErrTokenRevoked
		}
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	accessToken, err := s.signAccessToken(user, now)
	if err != nil {
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Session refreshed").
		Uint("user_id", user.ID).
		Log()

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, user, nil
}

// Revoke ends the session identified by the presented refresh token
func (s *TokenService) Revoke(ctx context.Context, presented string) error {
	ctx = ctxutil.NewContext(ctx, "service", "TokenService.Revoke")

	stored, err := s.store.FindByToken(ctx, presented)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrTokenNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.store.Revoke(ctx, stored.ID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrTokenRevoked
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return nil
}

// RevokeAll ends every session the user holds
func (s *TokenService) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	revoked, err := s.store.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return revoked, nil
}

// Cleanup removes expired tokens and revoked tokens past retention
func (s *TokenService) Cleanup(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.retention)
}

func (s *TokenService) signAccessToken(user *model.User, now time.Time) (string, error) {
	return s.signAccessTokenClaims(AccessClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, now)
}

func (s *TokenService) signAccessTokenClaims(claims AccessClaims, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    string(claims.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(s.accessTTL).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *TokenService) signRefreshToken(userID uint, now time.Time) (string, time.Time, error) {
	jti, err := randomID()
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := now.Add(s.refreshTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"typ":     "refresh",
		"jti":     jti,
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	})

	signed, err := token.SignedString(s.secret)
	return signed, expiresAt, err
}

func (s *TokenService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

func randomID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
