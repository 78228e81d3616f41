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

type LoginVerifyInput struct {
	OTP string `validate:"required,otpcode"`
}

// LoginVerify checks the login passcode and authenticates the client. An
// expired code only drops the challenge; the account stays as it is.
func (s *Usecase) LoginVerify(ctx context.Context, sess session.Context, in LoginVerifyInput) (*Outcome, error) {
	ctx, span := s.startSpan(ctx, "LoginVerify")
	defer span.End()

	if sess.Kind() != session.KindPendingLogin {
		return s.reject(ctx, sess, entity.StepLogin, entity.ReasonLoginSessionExpired), nil
	}

	in.OTP = strings.TrimSpace(in.OTP)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := sess.Email()

	return s.withAccountLock(ctx, email, func(ctx context.Context) (*Outcome, error) {
		chal, err := s.repoDB.GetChallenge(ctx, email)
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "pending login has no challenge", "email", email)
			return s.reject(ctx, sess, entity.StepLogin, entity.ReasonUserNotFound), nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo get challenge", "email", email, "error", err)
			return nil, goerror.NewServer(err)
		}

		if chal.Expired(s.clock.Now()) {
			if err := s.repoDB.ClearChallenge(ctx, email); err != nil {
				slog.ErrorContext(ctx, "failed to repo clear challenge", "email", email, "error", err)
				return nil, goerror.NewServer(err)
			}

			return s.reject(ctx, sess, entity.StepLogin, entity.ReasonLoginOTPExpired), nil
		}

		if !otp.Equal(in.OTP, chal.Code) {
			return s.reject(ctx, sess, entity.StepLoginVerify, entity.ReasonOTPIncorrect), nil
		}

		if err := s.repoDB.ClearChallenge(ctx, email); err != nil {
			slog.ErrorContext(ctx, "failed to repo clear challenge", "email", email, "error", err)
			return nil, goerror.NewServer(err)
		}

		return &Outcome{
			Step:    entity.StepHome,
			Session: session.Authenticated(email),
			Message: "Login Successful",
		}, nil
	})
}
