package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrHTTPURLRequired is returned when the gateway URL is missing.
var ErrHTTPURLRequired = errors.New("sms: http gateway url is required")

// GatewayError is a non-2xx answer from the HTTP gateway.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("sms: gateway responded %d: %s", e.StatusCode, e.Body)
}

// HTTPConfig configures the HTTP gateway.
type HTTPConfig struct {
	URL    string
	APIKey string
	Sender string
	// Timeout bounds one HTTP attempt. Defaults to 5s.
	Timeout time.Duration
	// Attempts is the total number of tries on network errors, 429 and 5xx. Defaults to 3.
	Attempts int
}

// HTTP posts {to, message, sender} as JSON with the API key in X-API-KEY.
type HTTP struct {
	cfg    HTTPConfig
	client *http.Client
}

type httpPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

// NewHTTP builds the HTTP gateway client.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, ErrHTTPURLRequired
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	return &HTTP{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Send posts msg, retrying transient failures with exponential backoff.
func (h *HTTP) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrRecipientRequired
	}

	body, err := json.Marshal(httpPayload{To: msg.To, Message: msg.Body, Sender: h.cfg.Sender})
	if err != nil {
		return fmt.Errorf("sms: encode payload: %w", err)
	}

	b := retry.WithMaxRetries(uint64(h.cfg.Attempts-1), retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		return h.post(ctx, body)
	})
}

func (h *HTTP) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.cfg.APIKey != "" {
		req.Header.Set("X-API-KEY", h.cfg.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return retry.RetryableError(fmt.Errorf("sms: request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	gerr := &GatewayError{StatusCode: resp.StatusCode, Body: string(raw)}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return retry.RetryableError(gerr)
	}
	return gerr
}

// Close implements io.Closer.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
