package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSMS struct {
	sent []sms.Message
	err  error
}

func (f *fakeSMS) Send(_ context.Context, msg sms.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newUsecase(t *testing.T, repo *fakeSMS) *Usecase {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	return NewNotification(Dependency{RepoSMS: repo, Validator: v, Instrument: instrument.NewNoop()})
}

func TestUsecase_ConsumeOTPDelivery(t *testing.T) {
	t.Run("sends", func(t *testing.T) {
		repo := &fakeSMS{}
		uc := newUsecase(t, repo)

		err := uc.ConsumeOTPDelivery(context.Background(), ConsumeOTPDeliveryInput{Phone: "9998887776", Message: "code"})
		require.NoError(t, err)
		assert.Equal(t, []sms.Message{{To: "9998887776", Body: "code"}}, repo.sent)
	})

	t.Run("drops invalid payload", func(t *testing.T) {
		repo := &fakeSMS{}
		uc := newUsecase(t, repo)

		err := uc.ConsumeOTPDelivery(context.Background(), ConsumeOTPDeliveryInput{Phone: "12", Message: "code"})
		require.NoError(t, err)
		assert.Empty(t, repo.sent)
	})

	t.Run("returns gateway errors", func(t *testing.T) {
		boom := errors.New("gateway down")
		uc := newUsecase(t, &fakeSMS{err: boom})

		err := uc.ConsumeOTPDelivery(context.Background(), ConsumeOTPDeliveryInput{Phone: "9998887776", Message: "code"})
		assert.ErrorIs(t, err, boom)
	})
}
