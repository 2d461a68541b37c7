package service

import (
	"context"
	"time"

	"github.com/phamtung-23/auth-service/internal/dto"
	apperrors "github.com/phamtung-23/auth-service/internal/errors"
	"github.com/phamtung-23/auth-service/internal/mailer"
	"github.com/phamtung-23/auth-service/internal/model"
	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore is the persistence surface the identity service needs
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error
	VerifyEmailWithOtp(ctx context.Context, userID, otpID uint) error
	ResetPasswordWithOtp(ctx context.Context, userID, otpID uint, hashedPassword string) error
	List(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error)
}

// AuthService orchestrates the identity flows over the OTP engine, the
// token engine and the credential store.
type AuthService struct {
	users  UserStore
	otps   *OtpService
	tokens *TokenService
	mail   mailer.Sender
	cache  *CacheService
}

func NewAuthService(users UserStore, otps *OtpService, tokens *TokenService, mail mailer.Sender, cache *CacheService) *AuthService {
	return &AuthService{
		users:  users,
		otps:   otps,
		tokens: tokens,
		mail:   mail,
		cache:  cache,
	}
}

// Register creates an unverified account and sends a verification code.
// A delivery failure surfaces to the caller; the account stays registered
// and the code can be re-requested through ResendVerification.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.Register")

	_, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, apperrors.ErrEmailExists
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      model.RoleCustomer,
		IsActive:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User registered").
		Uint("user_id", user.ID).
		Log()

	if err := s.issueAndSend(ctx, user, model.OtpTypeVerification); err != nil {
		return nil, err
	}

	return dto.NewUserResponse(user), nil
}

// VerifyEmail validates a VERIFICATION code and marks the account verified.
// Verification is terminal: a verified account can never be re-verified.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.VerifyEmail")

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return apperrors.ErrAlreadyVerified
	}

	otp, err := s.otps.Validate(ctx, user.ID, model.OtpTypeVerification, code)
	if err != nil {
		return err
	}

	if err := s.users.VerifyEmailWithOtp(ctx, user.ID, otp.ID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrInvalidOrExpiredOtp
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.InvalidateUser(ctx, user.ID)

	logger.InfoWithContext(ctx, "Email verified").
		Uint("user_id", user.ID).
		Log()
	return nil
}

// ResendVerification issues a fresh VERIFICATION code for an unverified
// account.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.ResendVerification")

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return apperrors.ErrAlreadyVerified
	}

	return s.issueAndSend(ctx, user, model.OtpTypeVerification)
}

// Login authenticates with email and password. Unknown email and wrong
// password return the identical error so accounts cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, meta DeviceMeta) (*dto.SessionResponse, error) {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.Login")

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.WarnWithContext(ctx, "Login failed: password mismatch").
			Uint("user_id", user.ID).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	return s.openSession(ctx, user, meta)
}

// SendOtp issues a LOGIN code. The caller always receives the same generic
// response whether or not the account exists.
func (s *AuthService) SendOtp(ctx context.Context, email string) error {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.SendOtp")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// Deliberately indistinguishable from the success path
			logger.InfoWithContext(ctx, "Login code requested for unknown email").Log()
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !user.IsActive {
		return nil
	}

	return s.issueAndSend(ctx, user, model.OtpTypeLogin)
}

// VerifyOtp authenticates with a LOGIN code and opens a session. Unknown
// email maps to the same error as a wrong code.
func (s *AuthService) VerifyOtp(ctx context.Context, email, code string, meta DeviceMeta) (*dto.SessionResponse, error) {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.VerifyOtp")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrInvalidOrExpiredOtp
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	otp, err := s.otps.Validate(ctx, user.ID, model.OtpTypeLogin, code)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.otps.Consume(ctx, otp.ID); err != nil {
		return nil, err
	}

	return s.openSession(ctx, user, meta)
}

// ForgotPassword issues a PASSWORD_RESET code. Always succeeds from the
// caller's point of view, whether or not the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.ForgotPassword")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.InfoWithContext(ctx, "Password reset requested for unknown email").Log()
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !user.IsActive {
		return nil
	}

	return s.issueAndSend(ctx, user, model.OtpTypePasswordReset)
}

// ResetPassword validates a PASSWORD_RESET code and stores the new
// password hash, consuming the code in the same transaction.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.ResetPassword")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrInvalidOrExpiredOtp
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	otp, err := s.otps.Validate(ctx, user.ID, model.OtpTypePasswordReset, code)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.users.ResetPasswordWithOtp(ctx, user.ID, otp.ID, string(hashed)); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrInvalidOrExpiredOtp
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	// The reset proves control of the mailbox, so every open session is
	// treated as potentially compromised.
	if _, err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke sessions after password reset").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}

	s.cache.InvalidateUser(ctx, user.ID)

	logger.InfoWithContext(ctx, "Password reset completed").
		Uint("user_id", user.ID).
		Log()
	return nil
}

// ChangePassword verifies the current password before storing the new one,
// then ends every open session for the user.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.ChangePassword")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return apperrors.ErrIncorrectPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if _, err := s.tokens.RevokeAll(ctx, userID); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke sessions after password change").
			Uint("user_id", userID).
			Err(err).
			Log()
	}

	s.cache.InvalidateUser(ctx, userID)

	logger.InfoWithContext(ctx, "Password changed").
		Uint("user_id", userID).
		Log()
	return nil
}

// Refresh rotates a refresh token and returns the new session
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta DeviceMeta) (*dto.SessionResponse, error) {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.Refresh")

	pair, user, err := s.tokens.Refresh(ctx, refreshToken, meta)
	if err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         *dto.NewUserResponse(user),
	}, nil
}

// Logout revokes the presented refresh token. An unknown token maps to the
// same error as a malformed one.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.Logout")

	err := s.tokens.Revoke(ctx, refreshToken)
	if err == apperrors.ErrTokenNotFound {
		return apperrors.ErrInvalidRefreshToken
	}
	return err
}

// LogoutAll revokes every session the user holds and returns the count
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) (int64, error) {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.LogoutAll")
	return s.tokens.RevokeAll(ctx, userID)
}

// Profile returns the sanitized user projection, served from cache when
// possible.
func (s *AuthService) Profile(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.Profile")

	if cached := s.cache.GetUserProfile(ctx, userID); cached != nil {
		return cached, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	profile := dto.NewUserResponse(user)
	s.cache.SetUserProfile(ctx, profile)
	return profile, nil
}

// ListUsers returns a page of sanitized users for the admin surface
func (s *AuthService) ListUsers(ctx context.Context, limit, offset int, search string) ([]dto.UserResponse, int64, error) {
	ctx = ctxutil.NewContext(ctx, "service", "AuthService.ListUsers")

	users, total, err := s.users.List(ctx, limit, offset, search)
	if err != nil {
		return nil, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *dto.NewUserResponse(&users[i]))
	}
	return responses, total, nil
}

// findByEmail maps record absence to ErrUserNotFound
func (s *AuthService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return user, nil
}

// issueAndSend issues a code for the purpose and delivers it. Delivery
// failures surface as ErrMailDelivery rather than being swallowed.
func (s *AuthService) issueAndSend(ctx context.Context, user *model.User, otpType model.OtpType) error {
	otp, err := s.otps.Issue(ctx, user.ID, otpType)
	if err != nil {
		return err
	}

	if err := s.mail.SendOtp(user.Email, otpType, otp.Code); err != nil {
		logger.ErrorWithContext(ctx, "OTP delivery failed").
			Uint("user_id", user.ID).
			String("type", string(otpType)).
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrMailDelivery, err)
	}
	return nil
}

// openSession stamps last login and issues a fresh token pair
func (s *AuthService) openSession(ctx context.Context, user *model.User, meta DeviceMeta) (*dto.SessionResponse, error) {
	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.WarnWithContext(ctx, "Failed to stamp last login").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}
	user.LastLoginAt = &now

	pair, err := s.tokens.IssueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(ctx, user.ID)

	logger.LogAuth(user.Email, "login", true)

	return &dto.SessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         *dto.NewUserResponse(user),
	}, nil
}
