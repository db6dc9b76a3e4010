package messaging

import "time"

const defaultBackoff = 100 * time.Millisecond

type consumeOptions struct {
	// group is the Kafka consumer group, NSQ channel, NATS queue group or
	// Pub/Sub subscription depending on the driver.
	group       string
	concurrency int
	attempts    int
	backoff     time.Duration
}

// ConsumeOption configures Consume.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1, attempts: 3, backoff: defaultBackoff}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	if co.attempts <= 0 {
		co.attempts = 1
	}
	if co.backoff <= 0 {
		co.backoff = defaultBackoff
	}
	return co
}

// WithGroup names the consumer group so replicas share the work.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithConcurrency sets how many handlers run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithAttempts sets how many times a failing handler is tried before the
// message goes back to the broker.
func WithAttempts(n int) ConsumeOption {
	return func(o *consumeOptions) { o.attempts = n }
}

// WithBackoff sets the first wait between tries; later waits double up to a cap.
func WithBackoff(d time.Duration) ConsumeOption {
	return func(o *consumeOptions) { o.backoff = d }
}
