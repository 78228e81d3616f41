package mail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

var (
	// ErrNoRecipients is returned when To is empty.
	ErrNoRecipients = errors.New("no recipients provided")
	// ErrNoSender is returned when both Message.From and the configured default From are empty.
	ErrNoSender = errors.New("no sender provided")
	// ErrHeaderInjection is returned when an address or subject contains a line break.
	ErrHeaderInjection = errors.New("line break in mail header")
)

// Message is a plain text email.
type Message struct {
	// From is an optional explicit sender; the configured default is used when empty.
	From     string
	To       []string
	Subject  string
	TextBody string
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}

	fields := append([]string{m.From, m.Subject}, m.To...)
	for _, f := range fields {
		if strings.ContainsAny(f, "\r\n") {
			return ErrHeaderInjection
		}
	}

	return nil
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// Log is a Mail that only writes the message to the structured log.
type Log struct{}

// NewLog returns a logging mailer.
func NewLog() *Log { return &Log{} }

// Send implements Mail.
func (*Log) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "mail not delivered, smtp disabled", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Close implements io.Closer.
func (*Log) Close() error { return nil }
