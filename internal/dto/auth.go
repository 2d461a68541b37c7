package dto

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=50"`
	LastName  string `json:"last_name" binding:"required,min=2,max=50"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=100,strongpassword"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type VerifyEmailRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OtpCode string `json:"otp_code" binding:"required,len=6,numeric"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type SendOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOtpRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OtpCode string `json:"otp_code" binding:"required,len=6,numeric"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OtpCode     string `json:"otp_code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=100,strongpassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=100,strongpassword"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SessionResponse carries a freshly issued token pair and the session owner
type SessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // access token expiry in seconds
	User         UserResponse `json:"user"`
}
