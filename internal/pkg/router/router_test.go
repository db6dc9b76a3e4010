package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createdResponse struct {
	Value string `json:"value"`
}

func (createdResponse) Message() string { return "created" }
func (createdResponse) StatusCode() int { return http.StatusCreated }

func newTestRouter() *Router {
	return NewRouter(Config{
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter(t *testing.T) {
	ro := newTestRouter()
	ro.POST("/echo", func(r *Request) (any, error) {
		var in struct {
			Value string `json:"value"`
		}
		if err := r.DecodeBody(&in); err != nil {
			return nil, err
		}
		return createdResponse{Value: in.Value + "@" + r.ClientIP()}, nil
	})
	ro.POST("/limited", func(r *Request) (any, error) {
		return nil, goerror.NewTooManyRequest("slow down", 42)
	})
	ro.GET("/boom", func(r *Request) (any, error) {
		panic("boom")
	})

	t.Run("encodes success with message and status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"value":"x"}`))
		rec := httptest.NewRecorder()
		ro.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "created", body["message"])
		assert.Equal(t, map[string]any{"value": "x@192.0.2.1"}, body["data"])
		assert.NotEmpty(t, rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("ignores forwarding headers by default", func(t *testing.T) {
		for _, spoofed := range []string{"203.0.113.7", "198.51.100.9, 203.0.113.8"} {
			req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"value":"x"}`))
			req.Header.Set("X-Forwarded-For", spoofed)
			req.Header.Set("X-Real-IP", spoofed)
			req.Header.Set("True-Client-IP", spoofed)
			rec := httptest.NewRecorder()
			ro.ServeHTTP(rec, req)

			assert.Equal(t, map[string]any{"value": "x@192.0.2.1"}, decode(t, rec)["data"])
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"value":"x","extra":1}`))
		rec := httptest.NewRecorder()
		ro.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sets retry after on rate limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		rec := httptest.NewRecorder()
		ro.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "42", rec.Header().Get("Retry-After"))
		body := decode(t, rec)
		assert.Equal(t, "slow down", body["message"])
		assert.Equal(t, map[string]any{"retry_after": "42"}, body["error"])
	})

	t.Run("keeps incoming correlation id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.Header.Set(HeaderRequestID, "req-1")
		rec := httptest.NewRecorder()
		ro.ServeHTTP(rec, req)

		assert.Equal(t, "req-1", rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("recovers from panic", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", decode(t, rec)["message"])
	})

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestIPPolicy_ClientIP(t *testing.T) {
	newReq := func(remote string, headers map[string]string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req
	}

	xff := ipPolicy{headers: []string{"X-Forwarded-For"}}
	behindLB := ipPolicy{
		headers: []string{"X-Forwarded-For"},
		proxies: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
	}

	tests := []struct {
		name    string
		policy  ipPolicy
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "socket address", remote: "10.0.0.9:51234", want: "10.0.0.9"},
		{name: "ipv6 socket address", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "headers ignored without opt-in", remote: "10.0.0.9:51234", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, want: "10.0.0.9"},
		{name: "right-most hop", policy: xff, remote: "10.0.0.9:51234", headers: map[string]string{"X-Forwarded-For": "198.51.100.2, 203.0.113.7"}, want: "203.0.113.7"},
		{name: "real ip header", policy: ipPolicy{headers: []string{"X-Real-IP"}}, remote: "10.0.0.9:51234", headers: map[string]string{"X-Real-IP": "203.0.113.7"}, want: "203.0.113.7"},
		{name: "garbage header falls back", policy: xff, remote: "10.0.0.9:51234", headers: map[string]string{"X-Forwarded-For": "nope"}, want: "10.0.0.9"},
		{name: "skips trusted proxies from the right", policy: behindLB, remote: "10.1.2.3:80", headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 203.0.113.7, 10.9.9.9"}, want: "203.0.113.7"},
		{name: "untrusted peer cannot forward", policy: behindLB, remote: "198.51.100.50:80", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, want: "198.51.100.50"},
		{name: "all hops trusted falls back", policy: behindLB, remote: "10.1.2.3:80", headers: map[string]string{"X-Forwarded-For": "10.5.5.5"}, want: "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.clientIP(newReq(tt.remote, tt.headers)))
		})
	}
}

func TestNewIPPolicy(t *testing.T) {
	assert.Equal(t, ipPolicy{}, newIPPolicy(nil))

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  server:\n    client_ip_headers: none\n"))
	require.NoError(t, err)
	assert.Empty(t, newIPPolicy(cfg).headers)

	cfg, err = config.NewViperFromBytes("yaml", []byte("app:\n  server:\n    port: 1\n"))
	require.NoError(t, err)
	assert.Empty(t, newIPPolicy(cfg).headers)

	cfg, err = config.NewViperFromBytes("yaml", []byte(
		"app:\n  server:\n    client_ip_headers: X-Forwarded-For\n    trusted_proxies: 10.0.0.0/8,192.168.1.7,bogus\n"))
	require.NoError(t, err)
	p := newIPPolicy(cfg)
	assert.Equal(t, []string{"X-Forwarded-For"}, p.headers)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.7/32"),
	}, p.proxies)
}

func TestMaintenance(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints: /api/v1/otp/send\n"))
	require.NoError(t, err)

	ro := NewRouter(Config{Config: cfg, UUID: uid.NewUUID(), Instrument: instrument.NewNoop()})
	ok := func(*Request) (any, error) { return map[string]bool{"ok": true}, nil }
	ro.POST("/api/v1/otp/send", ok)
	ro.POST("/api/v1/otp/verify", ok)

	rec := httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/otp/send", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	ro.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/otp/verify", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
