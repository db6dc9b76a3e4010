package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	Brokers []string
}

// Kafka is backed by kafka-go. Offsets are committed after the handler
// finishes, whether or not it succeeded.
type Kafka struct {
	brokers []string
	writer  *kafka.Writer

	mu      sync.Mutex
	readers []*kafka.Reader
	closed  bool
}

// NewKafka builds a Kafka client with one shared writer.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		brokers: cfg.Brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Close closes readers then the writer.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	readers := k.readers
	k.mu.Unlock()

	var err error
	for _, r := range readers {
		err = errors.Join(err, r.Close())
	}
	return errors.Join(err, k.writer.Close())
}

// Publish writes msg to topic, partitioned by its key.
func (k *Kafka) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if topic == "" {
		return ErrTopicRequired
	}

	km := kafka.Message{Topic: topic, Key: msg.Key, Value: msg.Body}
	for _, h := range msg.Headers {
		if h.Key != "" {
			km.Headers = append(km.Headers, kafka.Header{Key: h.Key, Value: h.Value})
		}
	}

	if err := k.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

// Consume starts one reader per concurrency slot inside the group so that
// each partition is handled in order.
func (k *Kafka) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for range co.concurrency {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  k.brokers,
			GroupID:  co.group,
			Topic:    topic,
			MaxBytes: 10e6,
		})
		if err := k.track(reader); err != nil {
			_ = reader.Close()
			return err
		}

		wg.Go(func() {
			if err := k.readLoop(ctx, reader, co, handler); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return firstErr
}

func (k *Kafka) readLoop(ctx context.Context, reader *kafka.Reader, co consumeOptions, handler Handler) error {
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("messaging: kafka fetch: %w", err)
		}

		msg := Message{
			ID:    m.Topic + "/" + strconv.Itoa(m.Partition) + "/" + strconv.FormatInt(m.Offset, 10),
			Topic: m.Topic,
			Key:   m.Key,
			Body:  m.Value,
		}
		for _, h := range m.Headers {
			msg.Headers = append(msg.Headers, Header{Key: h.Key, Value: h.Value})
		}

		_ = dispatch(ctx, DriverKafka, co, handler, msg)

		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "failed to commit kafka message", "topic", m.Topic, "offset", m.Offset, "error", err)
		}
	}
}

func (k *Kafka) track(r *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return ErrClosed
	}
	k.readers = append(k.readers, r)
	return nil
}
