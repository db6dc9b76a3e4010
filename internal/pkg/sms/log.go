package sms

import (
	"context"
	"log/slog"
)

// Log writes messages to the structured log instead of sending them.
// The body is logged under "message", which deployments usually mask.
type Log struct{}

// NewLog returns the log sender.
func NewLog() *Log {
	return &Log{}
}

// Send logs msg.
func (*Log) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrRecipientRequired
	}
	slog.InfoContext(ctx, "sms sent to log", "to", msg.To, "message", msg.Body)
	return nil
}

// Close implements io.Closer.
func (*Log) Close() error {
	return nil
}
