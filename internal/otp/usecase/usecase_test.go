package usecase

import (
	"context"
	"regexp"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/lock"
	"github.com/shandysiswandi/otpgate/internal/pkg/throttle"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

const testConfig = `
app:
  name: OTPGate
modules:
  otp:
    length: 6
    ttl_minutes: 10
    max_attempts: 5
    gate:
      min_gap_seconds: 60
      max_per_hour: 5
      max_per_day: 10
    source:
      window_minutes: 10
      window_max: 3
      daily_max: 10
    repository_timeout_seconds: 2
    delivery_timeout_seconds: 2
    lock_timeout_seconds: 2
    retention_hours: 24
`

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu      sync.Mutex
	records []entity.Record
	err     error

	countCalls int
	sinces     []time.Time

	// latestDelay widens the window between reading history and inserting.
	latestDelay time.Duration
}

func (f *fakeRepo) FindLatest(_ context.Context, identity string) (*entity.Record, error) {
	time.Sleep(f.latestDelay)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	var latest *entity.Record
	for i := range f.records {
		r := f.records[i]
		if r.Identity == identity && (latest == nil || r.CreatedAt.After(latest.CreatedAt)) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, goerror.ErrNotFound
	}
	return latest, nil
}

func (f *fakeRepo) FindActive(_ context.Context, identity string, now time.Time) (*entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	var active *entity.Record
	for i := range f.records {
		r := f.records[i]
		if r.Identity == identity && r.Active(now) && (active == nil || r.CreatedAt.After(active.CreatedAt)) {
			active = &r
		}
	}
	if active == nil {
		return nil, goerror.ErrNotFound
	}
	return active, nil
}

func (f *fakeRepo) CountSince(_ context.Context, identity string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	f.sinces = append(f.sinces, since)
	if f.err != nil {
		return 0, f.err
	}

	n := 0
	for _, r := range f.records {
		if r.Identity == identity && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) InvalidateAndInsert(_ context.Context, rec entity.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}

	for i := range f.records {
		if f.records[i].Identity == rec.Identity {
			f.records[i].IsUsed = true
		}
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRepo) IncrementAttempts(_ context.Context, id int64, expected int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}

	for i := range f.records {
		r := &f.records[i]
		if r.ID == id && !r.IsUsed && r.Attempts == expected {
			r.Attempts++
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) MarkUsed(_ context.Context, id int64, verifiedAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}

	for i := range f.records {
		r := &f.records[i]
		if r.ID == id && !r.IsUsed {
			r.IsUsed = true
			r.VerifiedAt = verifiedAt
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}

	n := len(f.records)
	f.records = slices.DeleteFunc(f.records, func(r entity.Record) bool {
		return r.ExpiresAt.Before(before)
	})
	return int64(n - len(f.records)), nil
}

func (f *fakeRepo) unused(identity string) []entity.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []entity.Record
	for _, r := range f.records {
		if r.Identity == identity && !r.IsUsed {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeRepo) add(recs ...entity.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range recs {
		if r.ID == 0 {
			r.ID = int64(len(f.records) + 1000)
		}
		f.records = append(f.records, r)
	}
}

type sent struct {
	identity string
	message  string
}

type fakeDeliverer struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeDeliverer) Deliver(_ context.Context, identity, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{identity: identity, message: message})
	return nil
}

var reCode = regexp.MustCompile(`code is: (\d+)\.`)

func (f *fakeDeliverer) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.sent)
	m := reCode.FindStringSubmatch(f.sent[len(f.sent)-1].message)
	require.Len(t, m, 2)
	return m[1]
}

type fixture struct {
	uc    *Usecase
	repo  *fakeRepo
	deliv *fakeDeliverer
	clk   *clock.Fake
}

func newFixture(t *testing.T, loc *time.Location) fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	if loc == nil {
		loc = time.UTC
	}

	clk := clock.NewFake(t0)
	repo := &fakeRepo{}
	deliv := &fakeDeliverer{}

	uc := New(Dependency{
		RepoDB:     repo,
		Deliverer:  deliv,
		Window:     throttle.NewMemoryWindow(clk, time.Minute),
		Daily:      throttle.NewMemoryDaily(clk, loc, time.Minute),
		Locker:     lock.NewMemory(),
		Validator:  v,
		Config:     cfg,
		UID:        sf,
		Clock:      clk,
		Location:   loc,
		Instrument: instrument.NewNoop(),
	})

	return fixture{uc: uc, repo: repo, deliv: deliv, clk: clk}
}
