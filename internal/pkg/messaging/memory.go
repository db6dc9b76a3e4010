package messaging

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
)

// Memory is an in-process bus. Each consumer group receives every message
// once; consumers in the same group share it. Nothing survives a restart.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan Message
	seq    atomic.Uint64
	closed bool
	done   chan struct{}
}

// NewMemory returns an empty bus.
func NewMemory() *Memory {
	return &Memory{
		groups: make(map[string]map[string]chan Message),
		done:   make(chan struct{}),
	}
}

// Close stops every consumer.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish fans msg out to every group subscribed to topic.
func (m *Memory) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	delivered := Message{
		ID:      strconv.FormatUint(m.seq.Add(1), 10),
		Topic:   topic,
		Key:     msg.Key,
		Body:    msg.Body,
		Headers: msg.Headers,
	}
	for _, ch := range m.groups[topic] {
		select {
		case ch <- delivered:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Consume subscribes the group to topic and runs handlers until ctx is done or the bus is closed.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	ch, err := m.subscribe(topic, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case msg := <-ch:
					_ = dispatch(ctx, DriverMemory, co, handler, msg)
				case <-ctx.Done():
					return
				case <-m.done:
					return
				}
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}

func (m *Memory) subscribe(topic, group string) (chan Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.groups[topic] == nil {
		m.groups[topic] = make(map[string]chan Message)
	}
	ch, ok := m.groups[topic][group]
	if !ok {
		ch = make(chan Message, 256)
		m.groups[topic][group] = ch
	}
	return ch, nil
}
