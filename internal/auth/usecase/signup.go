package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/auth/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type SignupInput struct {
	Username string `validate:"required,max=100,username"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=256"`
	Confirm  string `validate:"required,max=256"`
}

// Signup creates a pending account and sends its first passcode. The client
// moves to signup verification.
func (s *Usecase) Signup(ctx context.Context, sess session.Context, in SignupInput) (*Outcome, error) {
	ctx, span := s.startSpan(ctx, "Signup")
	defer span.End()

	in.Email = entity.NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Password != in.Confirm {
		return s.reject(ctx, sess, entity.StepSignup, entity.ReasonPasswordMismatch), nil
	}

	if !entity.IsStrongPassword(in.Password) {
		return s.reject(ctx, sess, entity.StepSignup, entity.ReasonWeakPassword), nil
	}

	hashedPassword, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.withAccountLock(ctx, in.Email, func(ctx context.Context) (*Outcome, error) {
		chal, err := s.issueChallenge(ctx, in.Email)
		if err != nil {
			return nil, err
		}

		err = s.repoDB.CreateAccount(ctx, entity.NewAccount{
			ID:           s.uid.Generate(),
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hashedPassword,
			Challenge:    chal,
		})
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "email already registered", "email", in.Email)
			return s.reject(ctx, sess, entity.StepSignup, entity.ReasonEmailRegistered), nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo create account", "email", in.Email, "error", err)
			return nil, goerror.NewServer(err)
		}

		s.notify(ctx, in.Email, chal.Code, entity.StepSignup)

		return &Outcome{
			Step:    entity.StepSignupVerify,
			Session: session.PendingSignup(in.Email),
			Message: "OTP sent. Please check your email.",
		}, nil
	})
}
