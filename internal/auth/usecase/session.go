package usecase

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/auth/session"
)

// Logout forgets the client state, whatever it was.
func (s *Usecase) Logout(ctx context.Context, _ session.Context) (*Outcome, error) {
	_, span := s.startSpan(ctx, "Logout")
	defer span.End()

	return &Outcome{Step: entity.StepLogin, Session: session.Anonymous(), Message: "Logged out"}, nil
}

// Home admits authenticated clients only.
func (s *Usecase) Home(ctx context.Context, sess session.Context) (*Outcome, error) {
	ctx, span := s.startSpan(ctx, "Home")
	defer span.End()

	if sess.Kind() != session.KindAuthenticated {
		return s.reject(ctx, sess, entity.StepLogin, entity.ReasonAuthenticationRequired), nil
	}

	return &Outcome{Step: entity.StepHome, Session: sess, Message: "Welcome " + sess.Email()}, nil
}

// State tells the client which step it is in.
func (s *Usecase) State(ctx context.Context, sess session.Context) (*Outcome, error) {
	_, span := s.startSpan(ctx, "State")
	defer span.End()

	step := entity.StepLogin
	switch sess.Kind() {
	case session.KindPendingSignup:
		step = entity.StepSignupVerify
	case session.KindPendingLogin:
		step = entity.StepLoginVerify
	case session.KindAuthenticated:
		step = entity.StepHome
	}

	return &Outcome{Step: step, Session: sess}, nil
}
