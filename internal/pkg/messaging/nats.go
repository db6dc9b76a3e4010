package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS is backed by core NATS. Delivery is at most once; a failed handler is only logged.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to NATS.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}
	return &NATS{conn: conn}, nil
}

// Close drains subscriptions and closes the connection.
func (n *NATS) Close() error {
	if n.conn.IsClosed() {
		return nil
	}
	return n.conn.Drain()
}

// Publish sends msg to the subject topic.
func (n *NATS) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	nmsg := nats.NewMsg(topic)
	nmsg.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key != "" {
			nmsg.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.Flush(); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

// Consume queue-subscribes to topic with the group as queue name.
func (n *NATS) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	msgCh := make(chan *nats.Msg, 64*co.concurrency)
	sub, err := n.conn.ChanQueueSubscribe(topic, co.group, msgCh)
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgCh {
				_ = dispatch(ctx, DriverNATS, co, handler, fromNATS(m))
			}
		})
	}

	<-ctx.Done()
	uerr := sub.Unsubscribe()
	close(msgCh)
	wg.Wait()

	if uerr != nil && !errors.Is(uerr, nats.ErrConnectionClosed) {
		return errors.Join(ctx.Err(), uerr)
	}
	return ctx.Err()
}

func fromNATS(m *nats.Msg) Message {
	msg := Message{Topic: m.Subject, Body: m.Data}
	for k, values := range m.Header {
		for _, v := range values {
			msg.Headers = append(msg.Headers, Header{Key: k, Value: []byte(v)})
		}
	}
	return msg
}
