package messaging

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrClosed is returned after Close was called.
	ErrClosed = errors.New("messaging: client closed")
	// ErrTopicRequired is returned when topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume gets a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned when a driver needs a consumer group and none was given.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
)

// Messaging is a broker client able to publish and consume.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher sends messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Outgoing) error
}

// Consumer blocks delivering messages of topic to handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one message.
type Handler func(ctx context.Context, msg Message) error

// Header is a message header. Keys may repeat.
type Header struct {
	Key   string
	Value []byte
}

// Outgoing is a message to publish.
type Outgoing struct {
	// Key routes related messages together where the broker supports it.
	Key     []byte
	Body    []byte
	Headers []Header
}

// Message is a received message.
type Message struct {
	ID      string
	Topic   string
	Key     []byte
	Body    []byte
	Headers []Header
}

// Header returns the first value of key, or an empty string.
func (m Message) Header(key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
