package mailer

import (
	"fmt"
	"time"

	"github.com/phamtung-23/auth-service/config"
	"github.com/phamtung-23/auth-service/internal/model"
	"github.com/phamtung-23/auth-service/pkg/circuit"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers one-time codes to users
type Sender interface {
	SendOtp(to string, purpose model.OtpType, code string) error
}

// SMTPSender delivers OTP emails over SMTP, guarded by a circuit breaker
type SMTPSender struct {
	dialer  *gomail.Dialer
	from    string
	otpTTL  time.Duration
	breaker *circuit.Breaker
	logger  *zap.Logger
}

// NewSMTPSender creates a mail sender from SMTP configuration
func NewSMTPSender(cfg config.SMTPConfig, otpTTL time.Duration, breaker *circuit.Breaker, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		otpTTL:  otpTTL,
		breaker: breaker,
		logger:  logger,
	}
}

// SendOtp sends a one-time code with a purpose-specific subject and body
func (s *SMTPSender) SendOtp(to string, purpose model.OtpType, code string) error {
	subject, intro := s.template(purpose)
	minutes := int(s.otpTTL.Minutes())

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 520px; margin: 0 auto;">
			<h2>%s</h2>
			<p>Use the following code to continue:</p>
			<p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">%s</p>
			<p>This code expires in %d minutes.</p>
			<p>If you did not request this, you can safely ignore this email.</p>
		</div>`, intro, code, minutes)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	err := s.breaker.Execute(func() error {
		return s.dialer.DialAndSend(m)
	})
	if err != nil {
		s.logger.Error("Failed to send OTP email",
			zap.String("purpose", string(purpose)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	s.logger.Info("OTP email sent",
		zap.String("purpose", string(purpose)),
	)
	return nil
}

func (s *SMTPSender) template(purpose model.OtpType) (subject, intro string) {
	switch purpose {
	case model.OtpTypeLogin:
		return "Your login code", "Sign in to your account"
	case model.OtpTypeVerification:
		return "Verify your email address", "Verify your email address"
	case model.OtpTypePasswordReset:
		return "Reset your password", "Reset your password"
	default:
		return "Your verification code", "Your verification code"
	}
}
