package messaging

type consumeOptions struct {
	concurrency int
	// group is the NSQ channel or NATS queue group; members share the load.
	group string
}

// ConsumeOption configures Consume.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency < 1 {
		co.concurrency = 1
	}
	return co
}

// WithConcurrency sets how many handler goroutines process messages in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithGroup sets the consumer group. Each message is delivered to one member
// of the group.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}
