package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/auth/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
)

type SignupVerifyInput struct {
	OTP string `validate:"required,otpcode"`
}

// SignupVerify checks the signup passcode. A correct code verifies the
// account; an expired one deletes the pending account so the email can sign
// up again.
func (s *Usecase) SignupVerify(ctx context.Context, sess session.Context, in SignupVerifyInput) (*Outcome, error) {
	ctx, span := s.startSpan(ctx, "SignupVerify")
	defer span.End()

	if sess.Kind() != session.KindPendingSignup {
		return s.reject(ctx, sess, entity.StepSignup, entity.ReasonNoPendingSignup), nil
	}

	in.OTP = strings.TrimSpace(in.OTP)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := sess.Email()

	return s.withAccountLock(ctx, email, func(ctx context.Context) (*Outcome, error) {
		cred, err := s.repoDB.GetCredentials(ctx, email)
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "pending signup account is gone", "email", email)
			return s.reject(ctx, sess, entity.StepSignup, entity.ReasonSignupAccountMissing), nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo get credentials", "email", email, "error", err)
			return nil, goerror.NewServer(err)
		}

		// an old signup session must not consume a login challenge
		if cred.Lifecycle.IsVerified() {
			slog.WarnContext(ctx, "signup verify on an already verified account", "email", email)
			return s.reject(ctx, sess, entity.StepSignup, entity.ReasonNoPendingSignup), nil
		}

		chal, err := s.repoDB.GetChallenge(ctx, email)
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "pending signup has no challenge", "email", email)
			return s.reject(ctx, sess, entity.StepSignup, entity.ReasonSignupAccountMissing), nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo get challenge", "email", email, "error", err)
			return nil, goerror.NewServer(err)
		}

		if chal.Expired(s.clock.Now()) {
			if _, err := s.repoDB.DeleteUnverified(ctx, email); err != nil {
				slog.ErrorContext(ctx, "failed to repo delete unverified account", "email", email, "error", err)
				return nil, goerror.NewServer(err)
			}

			slog.InfoContext(ctx, "signup otp expired, pending account removed", "email", email)
			return s.reject(ctx, sess, entity.StepSignup, entity.ReasonSignupOTPExpired), nil
		}

		if !otp.Equal(in.OTP, chal.Code) {
			return s.reject(ctx, sess, entity.StepSignupVerify, entity.ReasonOTPIncorrect), nil
		}

		err = s.repoDB.MarkVerified(ctx, email)
		if errors.Is(err, goerror.ErrNotFound) {
			return s.reject(ctx, sess, entity.StepSignup, entity.ReasonSignupAccountMissing), nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo mark verified", "email", email, "error", err)
			return nil, goerror.NewServer(err)
		}

		return &Outcome{
			Step:    entity.StepLogin,
			Session: session.Anonymous(),
			Message: "Registration successful. Please login.",
		}, nil
	})
}
