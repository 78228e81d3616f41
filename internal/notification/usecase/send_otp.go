package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

type SendOTPInput struct {
	Email        string `validate:"required,email"`
	Code         string `validate:"required,otpcode"`
	ValidMinutes int    `validate:"gte=1"`
}

// SendOTP mails a passcode to its owner. A malformed event is dropped since
// redelivering it cannot help.
func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) error {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	subject, err := s.render("subject", "modules.notification.otp_subject", defaultOTPSubject, in)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp subject", "error", err)
		return goerror.NewServer(err)
	}

	body, err := s.render("body", "modules.notification.otp_body", defaultOTPBody, in)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp body", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  subject,
		TextBody: body,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "email", in.Email, "error", err)
		return err
	}

	return nil
}
