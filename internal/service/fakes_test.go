package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/phamtung-23/auth-service/internal/model"
	"github.com/phamtung-23/auth-service/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// In-memory stores implementing the service interfaces. The token store is
// mutex-guarded so rotation races can be exercised for real.

type fakeOtpStore struct {
	mu     sync.Mutex
	nextID uint
	otps   map[uint]*model.Otp
}

func newFakeOtpStore() *fakeOtpStore {
	return &fakeOtpStore{otps: make(map[uint]*model.Otp)}
}

func (s *fakeOtpStore) Create(_ context.Context, otp *model.Otp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	otp.ID = s.nextID
	otp.CreatedAt = time.Now()
	clone := *otp
	s.otps[otp.ID] = &clone
	return nil
}

func (s *fakeOtpStore) InvalidateActive(_ context.Context, userID uint, otpType model.OtpType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, otp := range s.otps {
		if otp.UserID == userID && otp.Type == otpType && !otp.IsUsed {
			otp.IsUsed = true
		}
	}
	return nil
}

func (s *fakeOtpStore) FindActive(_ context.Context, userID uint, otpType model.OtpType) (*model.Otp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *model.Otp
	for _, otp := range s.otps {
		if otp.UserID == userID && otp.Type == otpType && otp.IsValid(time.Now()) {
			if latest == nil || otp.ID > latest.ID {
				latest = otp
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *latest
	return &clone, nil
}

func (s *fakeOtpStore) MarkUsed(_ context.Context, otpID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markUsedLocked(otpID)
}

func (s *fakeOtpStore) markUsedLocked(otpID uint) error {
	otp, ok := s.otps[otpID]
	if !ok || otp.IsUsed {
		return gorm.ErrRecordNotFound
	}
	otp.IsUsed = true
	return nil
}

func (s *fakeOtpStore) DeleteExpired(_ context.Context, retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-retention)
	var deleted int64
	for id, otp := range s.otps {
		if otp.ExpiresAt.Before(cutoff) {
			delete(s.otps, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
	otps   *fakeOtpStore
}

func newFakeUserStore(otps *fakeOtpStore) *fakeUserStore {
	return &fakeUserStore{users: make(map[uint]*model.User), otps: otps}
}

func (s *fakeUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID uint, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Password = hashedPassword
	return nil
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, userID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

func (s *fakeUserStore) VerifyEmailWithOtp(_ context.Context, userID, otpID uint) error {
	s.otps.mu.Lock()
	err := s.otps.markUsedLocked(otpID)
	s.otps.mu.Unlock()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsEmailVerified = true
	return nil
}

func (s *fakeUserStore) ResetPasswordWithOtp(_ context.Context, userID, otpID uint, hashedPassword string) error {
	s.otps.mu.Lock()
	err := s.otps.markUsedLocked(otpID)
	s.otps.mu.Unlock()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Password = hashedPassword
	return nil
}

func (s *fakeUserStore) List(_ context.Context, limit, offset int, search string) ([]model.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []model.User
	for id := uint(1); id <= s.nextID; id++ {
		user, ok := s.users[id]
		if !ok {
			continue
		}
		if search != "" {
			needle := strings.ToLower(search)
			if !strings.Contains(strings.ToLower(user.Email), needle) &&
				!strings.Contains(strings.ToLower(user.FirstName), needle) &&
				!strings.Contains(strings.ToLower(user.LastName), needle) {
				continue
			}
		}
		matched = append(matched, *user)
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

type fakeTokenStore struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*model.RefreshToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[uint]*model.RefreshToken)}
}

func (s *fakeTokenStore) Create(_ context.Context, token *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createLocked(token)
	return nil
}

func (s *fakeTokenStore) createLocked(token *model.RefreshToken) {
	s.nextID++
	token.ID = s.nextID
	token.CreatedAt = time.Now()
	clone := *token
	s.tokens[token.ID] = &clone
}

func (s *fakeTokenStore) FindByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.tokens {
		if stored.Token == token {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeTokenStore) Revoke(_ context.Context, tokenID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[tokenID]
	if !ok || stored.IsRevoked {
		return gorm.ErrRecordNotFound
	}
	stored.IsRevoked = true
	stored.UpdatedAt = time.Now()
	return nil
}

func (s *fakeTokenStore) Rotate(_ context.Context, oldTokenID uint, next *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[oldTokenID]
	if !ok || stored.IsRevoked {
		return gorm.ErrRecordNotFound
	}
	stored.IsRevoked = true
	stored.UpdatedAt = time.Now()
	s.createLocked(next)
	return nil
}

func (s *fakeTokenStore) RevokeAllForUser(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var revoked int64
	for _, stored := range s.tokens {
		if stored.UserID == userID && !stored.IsRevoked {
			stored.IsRevoked = true
			stored.UpdatedAt = time.Now()
			revoked++
		}
	}
	return revoked, nil
}

func (s *fakeTokenStore) DeleteExpired(_ context.Context, retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	cutoff := now.Add(-retention)
	var deleted int64
	for id, stored := range s.tokens {
		if stored.ExpiresAt.Before(now) || (stored.IsRevoked && stored.UpdatedAt.Before(cutoff)) {
			delete(s.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeTokenStore) activeCount(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, stored := range s.tokens {
		if stored.UserID == userID && !stored.IsRevoked {
			count++
		}
	}
	return count
}

type sentMail struct {
	To      string
	Purpose model.OtpType
	Code    string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (s *fakeSender) SendOtp(to string, purpose model.OtpType, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, sentMail{To: to, Purpose: purpose, Code: code})
	return nil
}

func (s *fakeSender) lastSent() (sentMail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentMail{}, false
	}
	return s.sent[len(s.sent)-1], true
}

func disabledCache() *CacheService {
	client, _ := redis.NewClient(redis.Config{Enabled: false}, zap.NewNop())
	return NewCacheService(client)
}

// testEnv wires an AuthService over the in-memory fakes
type testEnv struct {
	auth   *AuthService
	otps   *OtpService
	tokens *TokenService

	userStore  *fakeUserStore
	otpStore   *fakeOtpStore
	tokenStore *fakeTokenStore
	mail       *fakeSender
}

func newTestEnv() *testEnv {
	otpStore := newFakeOtpStore()
	userStore := newFakeUserStore(otpStore)
	tokenStore := newFakeTokenStore()
	mail := &fakeSender{}

	otps := NewOtpService(otpStore, 6, 10*time.Minute, 24*time.Hour)
	tokens := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour, 30*24*time.Hour, tokenStore, userStore)
	auth := NewAuthService(userStore, otps, tokens, mail, disabledCache())

	return &testEnv{
		auth:       auth,
		otps:       otps,
		tokens:     tokens,
		userStore:  userStore,
		otpStore:   otpStore,
		tokenStore: tokenStore,
		mail:       mail,
	}
}
