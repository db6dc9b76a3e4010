package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsUsecase(t *testing.T, length, retentionHours int) *Usecase {
	t.Helper()

	raw := fmt.Sprintf("modules:\n  otp:\n    length: %d\n    retention_hours: %d\n", length, retentionHours)
	cfg, err := config.NewViperFromBytes("yaml", []byte(raw))
	require.NoError(t, err)

	return New(Dependency{Config: cfg, Instrument: instrument.NewNoop()})
}

func TestUsecase_Settings(t *testing.T) {
	tests := []struct {
		name          string
		length        int
		retention     int
		wantLength    int
		wantRetention time.Duration
	}{
		{name: "defaults", wantLength: 6, wantRetention: 24 * time.Hour},
		{name: "in range", length: 8, retention: 48, wantLength: 8, wantRetention: 48 * time.Hour},
		{name: "length above column width", length: 20, retention: 24, wantLength: maxCodeLength, wantRetention: 24 * time.Hour},
		{name: "length too short", length: 2, retention: 24, wantLength: minCodeLength, wantRetention: 24 * time.Hour},
		{name: "retention below a day", length: 6, retention: 1, wantLength: 6, wantRetention: minRetention},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newSettingsUsecase(t, tt.length, tt.retention).settings()
			assert.Equal(t, tt.wantLength, st.codeLength)
			assert.Equal(t, tt.wantRetention, st.retention)
		})
	}
}

func TestUsecase_PurgeExpired_KeepsADayOfHistory(t *testing.T) {
	f := newFixture(t, nil)
	f.uc.cfg = newSettingsUsecase(t, 6, 1).cfg

	_, err := f.uc.Generate(t.Context(), "9998887776")
	require.NoError(t, err)

	f.clk.Advance(12 * time.Hour)
	n, err := f.uc.PurgeExpired(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)

	f.repo.mu.Lock()
	assert.Len(t, f.repo.records, 1)
	f.repo.mu.Unlock()
}
