// Package sms sends text messages to phone numbers through a configured
// gateway: an HTTP API, an email-to-SMS bridge over SMTP, or the log.
package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// DriverHTTP posts to an HTTP SMS gateway.
	DriverHTTP = "http"
	// DriverSMTP mails {phone}@{domain} on an email-to-SMS bridge.
	DriverSMTP = "smtp"
	// DriverLog only writes the message to the log.
	DriverLog = "log"
)

var (
	// ErrUnknownDriver indicates an unsupported sms driver.
	ErrUnknownDriver = errors.New("sms: unknown driver")
	// ErrRecipientRequired is returned when Message.To is empty.
	ErrRecipientRequired = errors.New("sms: recipient is required")
)

// Message is a text to one phone number.
type Message struct {
	To   string
	Body string
}

// SMS sends text messages.
type SMS interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// FactoryOptions groups config for supported gateways.
type FactoryOptions struct {
	HTTP HTTPConfig
	SMTP SMTPConfig
}

// NewFromDriver builds the gateway selected by driver.
func NewFromDriver(driver string, opts FactoryOptions) (SMS, error) {
	switch strings.TrimSpace(driver) {
	case DriverHTTP:
		return NewHTTP(opts.HTTP)
	case DriverSMTP:
		return NewSMTP(opts.SMTP)
	case DriverLog:
		return NewLog(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
