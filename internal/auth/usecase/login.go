package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/auth/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=256"`
}

// Login checks the password of a verified account and sends a login
// passcode. Unverified accounts get no passcode.
func (s *Usecase) Login(ctx context.Context, sess session.Context, in LoginInput) (*Outcome, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = entity.NormalizeEmail(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoDB.GetCredentials(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "email", in.Email)
		return s.reject(ctx, sess, entity.StepLogin, entity.ReasonUserNotFound), nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credentials", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !cred.Lifecycle.IsVerified() {
		slog.WarnContext(ctx, "account is not verified", "account_id", cred.ID, "lifecycle", cred.Lifecycle.String())
		return s.reject(ctx, sess, entity.StepLogin, entity.ReasonEmailNotVerified), nil
	}

	if !s.bcrypt.Verify(cred.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "password account not match", "account_id", cred.ID)
		return s.reject(ctx, sess, entity.StepLogin, entity.ReasonInvalidPassword), nil
	}

	return s.withAccountLock(ctx, in.Email, func(ctx context.Context) (*Outcome, error) {
		chal, err := s.issueChallenge(ctx, in.Email)
		if err != nil {
			return nil, err
		}

		err = s.repoDB.SetChallenge(ctx, in.Email, chal)
		if errors.Is(err, goerror.ErrNotFound) {
			return s.reject(ctx, sess, entity.StepLogin, entity.ReasonUserNotFound), nil
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo set challenge", "account_id", cred.ID, "error", err)
			return nil, goerror.NewServer(err)
		}

		s.notify(ctx, in.Email, chal.Code, entity.StepLogin)

		return &Outcome{
			Step:    entity.StepLoginVerify,
			Session: session.PendingLogin(in.Email),
			Message: "OTP sent. Please check your email.",
		}, nil
	})
}
