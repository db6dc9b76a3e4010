package sms

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

var (
	// ErrSMTPHostPortRequired is returned when Host/Port are missing.
	ErrSMTPHostPortRequired = errors.New("sms: smtp host and port are required")
	// ErrSMTPDomainRequired is returned when the email-to-SMS domain is missing.
	ErrSMTPDomainRequired = errors.New("sms: smtp gateway domain is required")
)

// SMTPConfig configures the email-to-SMS bridge.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Domain receives {phone}@{Domain} and forwards the body as a text message.
	Domain string
}

// SMTP sends text messages through an email-to-SMS bridge.
type SMTP struct {
	addr   string
	from   string
	domain string
	auth   smtp.Auth
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP builds the bridge client.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}
	if cfg.Domain == "" {
		return nil, ErrSMTPDomainRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:   cfg.From,
		domain: strings.TrimPrefix(cfg.Domain, "@"),
		auth:   auth,
		send:   smtp.SendMail,
	}, nil
}

// Send mails msg.Body as plain text to the bridge address of msg.To.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return ErrRecipientRequired
	}

	to := msg.To + "@" + s.domain
	headers := []string{
		"From: " + s.from,
		"To: " + to,
		"Subject: ",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	raw := strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.Body

	if err := s.send(s.addr, s.auth, s.from, []string{to}, []byte(raw)); err != nil {
		return fmt.Errorf("sms: smtp send: %w", err)
	}
	return nil
}

// Close implements io.Closer.
func (s *SMTP) Close() error {
	return nil
}
