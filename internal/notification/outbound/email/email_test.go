package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

type flakyMail struct {
	failures int
	err      error
	calls    int
}

func (f *flakyMail) Send(context.Context, mail.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (*flakyMail) Close() error { return nil }

func newMail(client mail.Mail, attempts int) *Mail {
	m := New(client, instrument.NewNoop(), attempts)
	m.backoff = time.Millisecond
	return m
}

func TestMail_RetriesTransientFailures(t *testing.T) {
	client := &flakyMail{failures: 2, err: errors.New("421 try later")}

	err := newMail(client, 3).Send(context.Background(), mail.Message{To: []string{"a@x.io"}})

	assert.NoError(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestMail_GivesUp(t *testing.T) {
	boom := errors.New("421 try later")
	client := &flakyMail{failures: 10, err: boom}

	err := newMail(client, 2).Send(context.Background(), mail.Message{To: []string{"a@x.io"}})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, client.calls)
}

func TestMail_PermanentFailureIsNotRetried(t *testing.T) {
	client := &flakyMail{failures: 10, err: mail.ErrNoRecipients}

	err := newMail(client, 5).Send(context.Background(), mail.Message{})

	assert.ErrorIs(t, err, mail.ErrNoRecipients)
	assert.Equal(t, 1, client.calls)
}
