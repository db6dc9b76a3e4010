package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetCorrelationID(ctx))

	ctx = SetCorrelationID(ctx, "abc-123")
	assert.Equal(t, "abc-123", GetCorrelationID(ctx))
}

func TestNoop(t *testing.T) {
	inst := NewNoop()
	assert.NotNil(t, inst.Tracer("otp"))
	assert.NotNil(t, inst.Meter("otp"))
	assert.NoError(t, inst.Shutdown(context.Background()))
}

func TestRedactHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&contextHandler{
		Handler: &redactHandler{
			next:  slog.NewJSONHandler(&buf, nil),
			rules: newRedactRules([]string{"otp", " Message "}, []string{"phone"}),
		},
		serviceName: "otpgate",
	})

	ctx := SetCorrelationID(context.Background(), "cid-1")
	logger.InfoContext(ctx, "delivered",
		"otp", "123456",
		"phone", "9876543210",
		"body", `{"otp":"654321","phone":"9876543210"}`,
		slog.Group("sms", slog.String("message", "Your code is 123456")),
	)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "***", got["otp"])
	assert.Equal(t, "******3210", got["phone"])
	assert.JSONEq(t, `{"otp":"***","phone":"******3210"}`, got["body"].(string))
	assert.Equal(t, map[string]any{"message": "***"}, got["sms"])
	assert.Equal(t, "cid-1", got["_cID"])
	assert.Equal(t, "otpgate", got["service"])
}

func TestRedactHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &redactHandler{next: slog.NewJSONHandler(&buf, nil), rules: newRedactRules(nil, []string{"identity"})}
	slog.New(h).With("identity", "628123456789").Info("gate")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "********6789", got["identity"])
}

func TestMaskKeepTail(t *testing.T) {
	assert.Equal(t, "***", maskKeepTail("123"))
	assert.Equal(t, "***", maskKeepTail("1234"))
	assert.Equal(t, "*2345", maskKeepTail("12345"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
