package messaging

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Memory is an in-process Messaging. Publish hands the message to one member
// of every group subscribed to the topic; it blocks while all members are busy.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[string]chan Message // topic → group → queue
	seq    atomic.Uint64
	closed atomic.Bool
	done   chan struct{}
}

// NewMemory returns an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[string]chan Message), done: make(chan struct{})}
}

// Close stops all consumers.
func (m *Memory) Close() error {
	if !m.closed.Swap(true) {
		close(m.done)
	}
	return nil
}

// Publish implements Publisher.
func (m *Memory) Publish(ctx context.Context, topic string, msg Message) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}

	msg.Topic = topic
	msg.ID = strconv.FormatUint(m.seq.Inc(), 10)
	msg.Timestamp = time.Now()

	m.mu.RLock()
	queues := make([]chan Message, 0, len(m.subs[topic]))
	for _, q := range m.subs[topic] {
		queues = append(queues, q)
	}
	m.mu.RUnlock()

	for _, q := range queues {
		select {
		case q <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		}
	}

	return nil
}

// Consume implements Consumer.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	q := m.queue(topic, co.group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case msg := <-q:
					if err := handleWithRecover(ctx, DriverMemory, handler, msg); err != nil {
						slog.ErrorContext(ctx, "memory handler failed, message dropped", "topic", topic, "error", err)
					}
				}
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (m *Memory) queue(topic, group string) chan Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups, ok := m.subs[topic]
	if !ok {
		groups = make(map[string]chan Message)
		m.subs[topic] = groups
	}

	q, ok := groups[group]
	if !ok {
		q = make(chan Message)
		groups[group] = q
	}
	return q
}
