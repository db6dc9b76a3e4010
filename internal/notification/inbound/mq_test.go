package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	cID string
	in  usecase.ConsumeOTPDeliveryInput
}

type fakeUC struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeUC) ConsumeOTPDelivery(ctx context.Context, in usecase.ConsumeOTPDeliveryInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{cID: instrument.GetCorrelationID(ctx), in: in})
	return f.err
}

func (f *fakeUC) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func otpBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(event.OTPDeliveryMessage{Phone: "9998887776", Message: "Your code", RequestedAt: 1})
	require.NoError(t, err)
	return body
}

func TestMQHandler_OTPDeliveryNotification(t *testing.T) {
	t.Run("passes payload and correlation id", func(t *testing.T) {
		uc := &fakeUC{}
		h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

		err := h.OTPDeliveryNotification(context.Background(), messaging.Message{
			ID:      "1",
			Body:    otpBody(t),
			Headers: []messaging.Header{{Key: event.KeyOfCorrelationID, Value: []byte("cid-7")}},
		})
		require.NoError(t, err)
		require.Len(t, uc.calls, 1)
		assert.Equal(t, "cid-7", uc.calls[0].cID)
		assert.Equal(t, usecase.ConsumeOTPDeliveryInput{Phone: "9998887776", Message: "Your code"}, uc.calls[0].in)
	})

	t.Run("generates a correlation id when missing", func(t *testing.T) {
		uc := &fakeUC{}
		h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

		require.NoError(t, h.OTPDeliveryNotification(context.Background(), messaging.Message{ID: "2", Body: otpBody(t)}))
		require.Len(t, uc.calls, 1)
		assert.NotEmpty(t, uc.calls[0].cID)
	})

	t.Run("drops malformed body", func(t *testing.T) {
		uc := &fakeUC{}
		h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

		require.NoError(t, h.OTPDeliveryNotification(context.Background(), messaging.Message{ID: "3", Body: []byte("{")}))
		assert.Empty(t, uc.calls)
	})

	t.Run("returns usecase error", func(t *testing.T) {
		boom := errors.New("gateway down")
		h := &MQHandler{uc: &fakeUC{err: boom}, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

		err := h.OTPDeliveryNotification(context.Background(), messaging.Message{ID: "4", Body: otpBody(t)})
		assert.ErrorIs(t, err, boom)
	})
}

func TestRegisterMQConsumer(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  notification:
    consumer_names: otp_delivery_notification
    concurrency: 2
    max_attempts: 1
`))
	require.NoError(t, err)

	bus := messaging.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	routine := goroutine.NewManager(4)
	uc := &fakeUC{}

	RegisterMQConsumer(ctx, cfg, routine, bus, uid.NewUUID(), uc, instrument.NewNoop())

	body := otpBody(t)
	require.Eventually(t, func() bool {
		_ = bus.Publish(ctx, event.OTPDeliveryDestination, messaging.Outgoing{Body: body})
		return uc.len() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, routine.Wait())
}
