package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

type fakePublisher struct {
	topic string
	msg   messaging.Message
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, msg messaging.Message) error {
	f.topic, f.msg = topic, msg
	return f.err
}

type notifierFunc func(ctx context.Context, destination, code string) error

func (f notifierFunc) Notify(ctx context.Context, destination, code string) error {
	return f(ctx, destination, code)
}

func TestConsole_Notify(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewConsole(&buf, 5*time.Minute).Notify(context.Background(), "a@x.io", "012345"))

	assert.Contains(t, buf.String(), "EMAIL: a@x.io")
	assert.Contains(t, buf.String(), "OTP CODE: 012345")
	assert.Contains(t, buf.String(), "EXPIRES IN: 5 minutes")
}

func TestBroker_Notify(t *testing.T) {
	// Arrange
	pub := &fakePublisher{}
	ctx := instrument.SetCorrelationID(context.Background(), "cid-1")

	// Act
	err := NewBroker(pub, instrument.NewNoop(), 5*time.Minute).Notify(ctx, "a@x.io", "012345")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, event.OTPIssuedDestination, pub.topic)
	assert.Equal(t, "cid-1", pub.msg.Header(instrument.CorrelationHeader))

	var msg event.OTPIssuedMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &msg))
	assert.Equal(t, event.OTPIssuedMessage{Email: "a@x.io", Code: "012345", ValidMinutes: 5}, msg)
}

func TestBroker_NotifyError(t *testing.T) {
	pub := &fakePublisher{err: messaging.ErrClosed}

	err := NewBroker(pub, instrument.NewNoop(), time.Minute).Notify(context.Background(), "a@x.io", "1")

	assert.ErrorIs(t, err, messaging.ErrClosed)
}

func TestFanout_Notify(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	ok := notifierFunc(func(context.Context, string, string) error { calls++; return nil })
	bad := notifierFunc(func(context.Context, string, string) error { calls++; return boom })

	err := Fanout{bad, ok, bad}.Notify(context.Background(), "a@x.io", "1")

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, Fanout{ok}.Notify(context.Background(), "a@x.io", "1"))
}
