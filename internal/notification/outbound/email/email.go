package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

// Mail delivers notification mails, retrying transient provider failures.
type Mail struct {
	client   mail.Mail
	ins      instrument.Instrumentation
	attempts uint64
	backoff  time.Duration
}

func New(client mail.Mail, ins instrument.Instrumentation, attempts int) *Mail {
	if attempts < 1 {
		attempts = 1
	}
	return &Mail{client: client, ins: ins, attempts: uint64(attempts), backoff: 200 * time.Millisecond}
}

func (m *Mail) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	b := retry.NewExponential(m.backoff)
	b = retry.WithMaxRetries(m.attempts-1, b)

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := m.client.Send(ctx, msg)
		if err == nil {
			return nil
		}
		// a bad message stays bad
		if errors.Is(err, mail.ErrNoRecipients) || errors.Is(err, mail.ErrNoSender) || errors.Is(err, mail.ErrHeaderInjection) {
			return err
		}
		slog.WarnContext(ctx, "mail delivery failed", "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})

	span.SetAttributes(attribute.Int("mail.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
