package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrTopicRequired is returned when the topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("messaging: client closed")
)

// Messaging publishes and consumes messages.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher publishes messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
}

// Consumer consumes messages from a topic. Consume blocks until ctx is done or
// the client is closed.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. Returning an error asks the broker to
// redeliver when it supports that.
type Handler func(ctx context.Context, msg Message) error

// Message is a broker independent message.
type Message struct {
	Topic   string
	Body    []byte
	Headers map[string]string
	// ID and Timestamp are filled on receipt when the broker provides them.
	ID        string
	Timestamp time.Time
}

// Header returns the value of a header, or "".
func (m Message) Header(key string) string {
	return m.Headers[key]
}
