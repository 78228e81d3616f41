// Package notify delivers issued passcodes out of band. Delivery is best
// effort: errors are returned for logging only and never change a flow.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

// Notifier sends code to destination.
type Notifier interface {
	Notify(ctx context.Context, destination, code string) error
}

// Console prints the passcode banner. It is meant for local runs where no
// mail is delivered.
type Console struct {
	w   io.Writer
	ttl time.Duration
}

func NewConsole(w io.Writer, ttl time.Duration) *Console {
	return &Console{w: w, ttl: ttl}
}

func (c *Console) Notify(_ context.Context, destination, code string) error {
	line := strings.Repeat("=", 70)
	_, err := fmt.Fprintf(c.w, "\n%s\nEMAIL: %s\nOTP CODE: %s\nEXPIRES IN: %d minutes\n%s\n\n",
		line, destination, code, minutes(c.ttl), line)
	return err
}

// Broker publishes an OTPIssued event; the notification module turns it into
// a mail.
type Broker struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
	ttl    time.Duration
}

func NewBroker(client messaging.Publisher, ins instrument.Instrumentation, ttl time.Duration) *Broker {
	return &Broker{client: client, ins: ins, ttl: ttl}
}

func (b *Broker) Notify(ctx context.Context, destination, code string) error {
	ctx, span := b.ins.Tracer("auth.outbound.notify").Start(ctx, "Broker.Notify")
	defer span.End()

	body, err := json.Marshal(event.OTPIssuedMessage{
		Email:        destination,
		Code:         code,
		ValidMinutes: minutes(b.ttl),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := b.client.Publish(ctx, event.OTPIssuedDestination, messaging.Message{
		Body:    body,
		Headers: map[string]string{instrument.CorrelationHeader: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// Fanout runs every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, destination, code string) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, destination, code); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func minutes(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}
