package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nsq "github.com/nsqio/go-nsq"
	"go.uber.org/atomic"
)

var (
	// ErrNSQProducerAddrRequired is returned when the producer address is missing.
	ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")
	// ErrNSQConsumerAddrsRequired is returned when no nsqd/lookupd consumer addresses are configured.
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq consumer nsqd/lookupd addresses are required")
	// ErrNSQGroupRequired is returned when Consume is called without WithGroup.
	ErrNSQGroupRequired = errors.New("messaging: nsq channel (group) is required")
)

const nsqMaxAttempts = 5

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	ProducerAddr         string
	ConsumerNSQDAddrs    []string
	ConsumerLookupdAddrs []string
	// ProducerConfig and ConsumerConfig default to nsq.NewConfig when nil.
	ProducerConfig *nsq.Config
	ConsumerConfig *nsq.Config
}

// NSQ is a Messaging backed by NSQ. NSQ has no message headers, so body and
// headers travel together in a JSON envelope.
type NSQ struct {
	producer *nsq.Producer
	cfg      NSQConfig
	closed   atomic.Bool
}

type nsqEnvelope struct {
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body"`
}

// NewNSQ constructs an NSQ client. The producer connects lazily on first publish.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" {
		return nil, ErrNSQProducerAddrRequired
	}

	pcfg := cfg.ProducerConfig
	if pcfg == nil {
		pcfg = nsq.NewConfig()
	}

	p, err := nsq.NewProducer(cfg.ProducerAddr, pcfg)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: p, cfg: cfg}, nil
}

// Close stops the producer. Running consumers stop when their context ends.
func (n *NSQ) Close() error {
	if n.closed.Swap(true) {
		return nil
	}
	n.producer.Stop()
	return nil
}

// Publish sends msg to topic.
func (n *NSQ) Publish(ctx context.Context, topic string, msg Message) error {
	if n.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(nsqEnvelope{Headers: msg.Headers, Body: msg.Body})
	if err != nil {
		return err
	}

	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

// Consume reads topic on the channel named by WithGroup. Failed messages are
// requeued up to a fixed number of attempts.
func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if n.closed.Load() {
		return ErrClosed
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if len(n.cfg.ConsumerNSQDAddrs) == 0 && len(n.cfg.ConsumerLookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrNSQGroupRequired
	}

	ccfg := nsq.NewConfig()
	if n.cfg.ConsumerConfig != nil {
		copied := *n.cfg.ConsumerConfig
		ccfg = &copied
	}
	ccfg.MaxInFlight = max(ccfg.MaxInFlight, co.concurrency)
	if ccfg.MaxAttempts == 0 {
		ccfg.MaxAttempts = nsqMaxAttempts
	}

	consumer, err := nsq.NewConsumer(topic, co.group, ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq new consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		msg, err := fromNSQ(topic, m)
		if err != nil {
			// undecodable bodies are finished, redelivery cannot fix them
			return nil
		}
		return handleWithRecover(ctx, DriverNSQ, handler, msg)
	}), co.concurrency)

	if len(n.cfg.ConsumerLookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.ConsumerLookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.ConsumerNSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

func fromNSQ(topic string, m *nsq.Message) (Message, error) {
	var env nsqEnvelope
	if err := json.Unmarshal(m.Body, &env); err != nil {
		return Message{}, err
	}

	return Message{
		Topic:     topic,
		Body:      env.Body,
		Headers:   env.Headers,
		ID:        fmt.Sprintf("%x", m.ID),
		Timestamp: time.Unix(0, m.Timestamp),
	}, nil
}
