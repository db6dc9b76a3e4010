package sms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_Send(t *testing.T) {
	t.Run("posts payload with api key", func(t *testing.T) {
		var got httpPayload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		gw, err := NewHTTP(HTTPConfig{URL: srv.URL, APIKey: "secret", Sender: "OTPGATE"})
		require.NoError(t, err)

		err = gw.Send(context.Background(), Message{To: "9876543210", Body: "hello"})
		require.NoError(t, err)
		assert.Equal(t, httpPayload{To: "9876543210", Message: "hello", Sender: "OTPGATE"}, got)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		gw, err := NewHTTP(HTTPConfig{URL: srv.URL, Attempts: 3})
		require.NoError(t, err)

		require.NoError(t, gw.Send(context.Background(), Message{To: "9876543210", Body: "x"}))
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "bad number", http.StatusBadRequest)
		}))
		defer srv.Close()

		gw, err := NewHTTP(HTTPConfig{URL: srv.URL, Attempts: 3})
		require.NoError(t, err)

		err = gw.Send(context.Background(), Message{To: "9876543210", Body: "x"})
		var gerr *GatewayError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, http.StatusBadRequest, gerr.StatusCode)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("honors context deadline", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Drain the body so the server notices the client disconnect and cancels r.Context().
			_, _ = io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
		}))
		defer srv.Close()

		gw, err := NewHTTP(HTTPConfig{URL: srv.URL})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.Error(t, gw.Send(ctx, Message{To: "9876543210", Body: "x"}))
	})

	t.Run("requires url and recipient", func(t *testing.T) {
		_, err := NewHTTP(HTTPConfig{})
		assert.ErrorIs(t, err, ErrHTTPURLRequired)

		gw, err := NewHTTP(HTTPConfig{URL: "http://localhost"})
		require.NoError(t, err)
		assert.ErrorIs(t, gw.Send(context.Background(), Message{}), ErrRecipientRequired)
	})
}

func TestSMTP_Send(t *testing.T) {
	gw, err := NewSMTP(SMTPConfig{Host: "mail.local", Port: 25, From: "otp@example.com", Domain: "@sms.example.com"})
	require.NoError(t, err)

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	gw.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	require.NoError(t, gw.Send(context.Background(), Message{To: "9876543210", Body: "code 123456"}))
	assert.Equal(t, "mail.local:25", gotAddr)
	assert.Equal(t, []string{"9876543210@sms.example.com"}, gotTo)
	assert.Contains(t, gotMsg, "To: 9876543210@sms.example.com\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\ncode 123456"))

	_, err = NewSMTP(SMTPConfig{Host: "mail.local", Port: 25})
	assert.ErrorIs(t, err, ErrSMTPDomainRequired)
}

func TestNewFromDriver(t *testing.T) {
	s, err := NewFromDriver("log", FactoryOptions{})
	require.NoError(t, err)
	assert.NoError(t, s.Send(context.Background(), Message{To: "9876543210", Body: "x"}))
	assert.NoError(t, s.Close())

	_, err = NewFromDriver("pigeon", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
