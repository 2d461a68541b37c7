package service

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/phamtung-23/auth-service/internal/errors"
	"github.com/phamtung-23/auth-service/internal/model"
)

func TestOtpIssueGeneratesNumericCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	otp, err := env.otps.Issue(ctx, 1, model.OtpTypeLogin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if len(otp.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", otp.Code)
	}
	for _, r := range otp.Code {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", otp.Code)
		}
	}
	if !otp.ExpiresAt.After(time.Now()) {
		t.Error("expected code to expire in the future")
	}
}

func TestOtpIssueInvalidatesPriorCodes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, err := env.otps.Issue(ctx, 1, model.OtpTypeLogin)
	if err != nil {
		t.Fatalf("first issue failed: %v", err)
	}
	second, err := env.otps.Issue(ctx, 1, model.OtpTypeLogin)
	if err != nil {
		t.Fatalf("second issue failed: %v", err)
	}

	if _, err := env.otps.Validate(ctx, 1, model.OtpTypeLogin, first.Code); !errors.Is(err, apperrors.ErrInvalidOrExpiredOtp) {
		// The superseded code must be dead even before it expires. A code
		// collision between the two issues would make this flaky, but with
		// 6 random digits that is a one-in-a-million run.
		if first.Code != second.Code {
			t.Fatalf("expected superseded code to be rejected, got %v", err)
		}
	}

	if _, err := env.otps.Validate(ctx, 1, model.OtpTypeLogin, second.Code); err != nil {
		t.Fatalf("expected latest code to validate, got %v", err)
	}
}

func TestOtpValidateIsTypeScoped(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	otp, err := env.otps.Issue(ctx, 1, model.OtpTypePasswordReset)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := env.otps.Validate(ctx, 1, model.OtpTypeLogin, otp.Code); !errors.Is(err, apperrors.ErrInvalidOrExpiredOtp) {
		t.Fatalf("expected reset code to fail login validation, got %v", err)
	}
}

func TestOtpValidateDoesNotConsume(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	otp, err := env.otps.Issue(ctx, 1, model.OtpTypeLogin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := env.otps.Validate(ctx, 1, model.OtpTypeLogin, otp.Code); err != nil {
		t.Fatalf("first validation failed: %v", err)
	}
	if _, err := env.otps.Validate(ctx, 1, model.OtpTypeLogin, otp.Code); err != nil {
		t.Fatalf("expected validation to leave the code consumable, got %v", err)
	}
}

func TestOtpConsumeIsSingleUse(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	otp, err := env.otps.Issue(ctx, 1, model.OtpTypeLogin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := env.otps.Consume(ctx, otp.ID); err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if err := env.otps.Consume(ctx, otp.ID); !errors.Is(err, apperrors.ErrInvalidOrExpiredOtp) {
		t.Fatalf("expected second consume to fail, got %v", err)
	}
	if _, err := env.otps.Validate(ctx, 1, model.OtpTypeLogin, otp.Code); !errors.Is(err, apperrors.ErrInvalidOrExpiredOtp) {
		t.Fatalf("expected consumed code to be rejected, got %v", err)
	}
}

func TestOtpValidateRejectsWrongCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	otp, err := env.otps.Issue(ctx, 1, model.OtpTypeLogin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	wrong := "000000"
	if wrong == otp.Code {
		wrong = "000001"
	}

	_, wrongErr := env.otps.Validate(ctx, 1, model.OtpTypeLogin, wrong)
	_, missingErr := env.otps.Validate(ctx, 2, model.OtpTypeLogin, otp.Code)

	if !errors.Is(wrongErr, apperrors.ErrInvalidOrExpiredOtp) {
		t.Fatalf("expected wrong code rejection, got %v", wrongErr)
	}
	// Wrong code and no code at all must be indistinguishable
	if wrongErr.Error() != missingErr.Error() {
		t.Fatalf("expected identical errors, got %q vs %q", wrongErr, missingErr)
	}
}

func TestOtpCleanupRemovesOldCodes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	otp, err := env.otps.Issue(ctx, 1, model.OtpTypeLogin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Age the code past the retention window
	env.otpStore.mu.Lock()
	env.otpStore.otps[otp.ID].ExpiresAt = time.Now().Add(-25 * time.Hour)
	env.otpStore.mu.Unlock()

	deleted, err := env.otps.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted code, got %d", deleted)
	}

	// A second pass is a no-op
	deleted, err = env.otps.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("second cleanup failed: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected idempotent cleanup, got %d deletions", deleted)
	}
}
