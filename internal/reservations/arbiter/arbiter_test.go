package arbiter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"carbroker/internal/reservations/cache"
	reserrors "carbroker/internal/reservations/errors"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── mocks ─────────────────────────────────────────────────────

type mockBooker struct {
	mu       sync.Mutex
	calls    int
	inFlight int32
	maxSeen  int32
	delay    time.Duration
	submitFn func(ctx context.Context, sub model.BookingSubmission) (model.RawRecord, error)
}

func (m *mockBooker) SubmitBooking(ctx context.Context, sub model.BookingSubmission) (model.RawRecord, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&m.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&m.maxSeen, seen, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.submitFn != nil {
		return m.submitFn(ctx, sub)
	}
	return model.RawRecord{"Rez_ID": "V-" + sub.PartnerReference, "ID": 9, "Status": "True"}, nil
}

func (m *mockBooker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockCanceller struct {
	err   error
	calls int
}

func (m *mockCanceller) CancelBooking(context.Context, string, string) error {
	m.calls++
	return m.err
}

type mockRecorder struct {
	mu      sync.Mutex
	results map[string]int
	cancels int
}

func (m *mockRecorder) BookingFinished(result string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results == nil {
		m.results = make(map[string]int)
	}
	m.results[result]++
}

func (m *mockRecorder) CancelFinished(bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
}

// ── helpers ───────────────────────────────────────────────────

func newLocks(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(context.Background(), cache.NewMemoryStore(), logger.Discard())
	require.NoError(t, err)
	return c
}

func dates(t *testing.T, pickup, dropoff string) model.DateRange {
	t.Helper()
	r, err := model.ParseDateRange(pickup, dropoff)
	require.NoError(t, err)
	return r
}

func attempt(t *testing.T, rez, park, pickup, dropoff string) Attempt {
	return Attempt{
		Identity:   model.VehicleIdentity{ReservationID: rez, ParkID: park},
		Range:      dates(t, pickup, dropoff),
		Submission: model.BookingSubmission{PartnerReference: rez + "-" + park},
	}
}

// ── book ──────────────────────────────────────────────────────

func TestBook_CommitsAndLocks(t *testing.T) {
	locks := newLocks(t)
	rec := &mockRecorder{}
	a := New(locks, &mockBooker{}, &mockCanceller{}, rec, Config{}, logger.Discard())
	at := attempt(t, "R1", "P1", "2025-03-01", "2025-03-05")

	out, err := a.Book(context.Background(), at)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, out.State)
	assert.Equal(t, VerdictCommitted, out.Verdict)
	assert.True(t, out.Confirmed)
	assert.True(t, out.LockAdded)
	assert.False(t, out.Ambiguous)
	assert.Equal(t, "V-R1-P1", out.VendorReservationID)
	assert.True(t, locks.Holds(at.Identity, at.Range))
	assert.Equal(t, 1, rec.results[resultCommitted])
}

func TestBook_SecondOverlappingAttemptConflicts(t *testing.T) {
	locks := newLocks(t)
	booker := &mockBooker{}
	a := New(locks, booker, &mockCanceller{}, nil, Config{}, logger.Discard())

	_, err := a.Book(context.Background(), attempt(t, "R1", "P1", "2025-03-01", "2025-03-05"))
	require.NoError(t, err)

	_, err = a.Book(context.Background(), attempt(t, "R1", "P1", "2025-03-03", "2025-03-08"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, reserrors.ErrConflict))
	assert.Equal(t, 1, booker.Calls(), "conflicting attempt must not reach the vendor")
}

func TestBook_AdjacentRangeIsAllowed(t *testing.T) {
	locks := newLocks(t)
	a := New(locks, &mockBooker{}, &mockCanceller{}, nil, Config{}, logger.Discard())

	_, err := a.Book(context.Background(), attempt(t, "R1", "P1", "2025-03-01", "2025-03-05"))
	require.NoError(t, err)
	_, err = a.Book(context.Background(), attempt(t, "R1", "P1", "2025-03-05", "2025-03-07"))
	require.NoError(t, err)
	assert.Equal(t, 2, locks.Len())
}

func TestBook_MissingIdentity(t *testing.T) {
	booker := &mockBooker{}
	a := New(newLocks(t), booker, &mockCanceller{}, nil, Config{}, logger.Discard())

	_, err := a.Book(context.Background(), attempt(t, "", "P1", "2025-03-01", "2025-03-05"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, reserrors.ErrMissingIdentity))
	assert.Contains(t, err.Error(), "rez_id")
	assert.Zero(t, booker.Calls())
}

func TestBook_InvalidRange(t *testing.T) {
	a := New(newLocks(t), &mockBooker{}, &mockCanceller{}, nil, Config{}, logger.Discard())
	at := attempt(t, "R1", "P1", "2025-03-01", "2025-03-05")
	at.Range.Dropoff = at.Range.Pickup

	_, err := a.Book(context.Background(), at)
	assert.True(t, errors.Is(err, reserrors.ErrInvalidRange))
}

func TestBook_RejectionLeavesCacheUntouched(t *testing.T) {
	locks := newLocks(t)
	booker := &mockBooker{submitFn: func(context.Context, model.BookingSubmission) (model.RawRecord, error) {
		return model.RawRecord{"Success": "False"}, nil
	}}
	a := New(locks, booker, &mockCanceller{}, nil, Config{}, logger.Discard())
	at := attempt(t, "R1", "P1", "2025-03-01", "2025-03-05")

	out, err := a.Book(context.Background(), at)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reserrors.ErrVendorRejected))
	require.NotNil(t, out)
	assert.Equal(t, StateRolledBack, out.State)
	assert.Zero(t, locks.Len())
}

func TestBook_TimeoutIsAmbiguousAndLocks(t *testing.T) {
	locks := newLocks(t)
	booker := &mockBooker{delay: time.Second}
	a := New(locks, booker, &mockCanceller{}, nil, Config{BookingTimeout: 20 * time.Millisecond}, logger.Discard())
	at := attempt(t, "R1", "P1", "2025-03-01", "2025-03-05")

	out, err := a.Book(context.Background(), at)
	require.NoError(t, err)
	assert.True(t, out.Ambiguous)
	assert.Equal(t, VerdictAmbiguous, out.Verdict)
	assert.NotEmpty(t, out.Warning)
	assert.ErrorIs(t, out.Cause, reserrors.ErrVendorAmbiguous)
	assert.Equal(t, StateCommitted, out.State)
	assert.True(t, locks.Holds(at.Identity, at.Range))
}

func TestBook_CallerCancellationDoesNotAbortVendorCall(t *testing.T) {
	locks := newLocks(t)
	booker := &mockBooker{delay: 50 * time.Millisecond}
	a := New(locks, booker, &mockCanceller{}, nil, Config{}, logger.Discard())
	at := attempt(t, "R1", "P1", "2025-03-01", "2025-03-05")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	out, err := a.Book(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, VerdictCommitted, out.Verdict)
	assert.Equal(t, StateCommitted, out.State)
	assert.True(t, locks.Holds(at.Identity, at.Range))
}

func TestBook_SameIdentitySerialized(t *testing.T) {
	locks := newLocks(t)
	booker := &mockBooker{delay: 30 * time.Millisecond}
	a := New(locks, booker, &mockCanceller{}, nil, Config{}, logger.Discard())

	const attempts = 5
	var wg sync.WaitGroup
	var committed, conflicted int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Book(context.Background(), attempt(t, "R1", "P1", "2025-03-01", "2025-03-05"))
			switch {
			case err == nil:
				atomic.AddInt32(&committed, 1)
			case errors.Is(err, reserrors.ErrConflict):
				atomic.AddInt32(&conflicted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), committed)
	assert.Equal(t, int32(attempts-1), conflicted)
	assert.Equal(t, 1, booker.Calls())
	assert.Equal(t, int32(1), atomic.LoadInt32(&booker.maxSeen))
	assert.Zero(t, a.mutex.Len())
}

func TestBook_DifferentIdentitiesRunConcurrently(t *testing.T) {
	locks := newLocks(t)
	booker := &mockBooker{delay: 100 * time.Millisecond}
	a := New(locks, booker, &mockCanceller{}, nil, Config{}, logger.Discard())

	var wg sync.WaitGroup
	start := time.Now()
	for _, park := range []string{"P1", "P2", "P3"} {
		wg.Add(1)
		go func(park string) {
			defer wg.Done()
			_, err := a.Book(context.Background(), attempt(t, "R1", park, "2025-03-01", "2025-03-05"))
			assert.NoError(t, err)
		}(park)
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&booker.maxSeen))
	assert.Equal(t, 3, locks.Len())
}

func TestBook_LockWaitExpires(t *testing.T) {
	locks := newLocks(t)
	rec := &mockRecorder{}
	a := New(locks, &mockBooker{}, &mockCanceller{}, rec, Config{LockWait: 10 * time.Millisecond}, logger.Discard())
	at := attempt(t, "R1", "P1", "2025-03-01", "2025-03-05")

	unlock, err := a.mutex.Lock(context.Background(), at.Identity.Key())
	require.NoError(t, err)
	defer unlock()

	_, err = a.Book(context.Background(), at)
	assert.True(t, errors.Is(err, reserrors.ErrLockTimeout))
	assert.Equal(t, 1, rec.results[resultLockTimeout])
	assert.Zero(t, locks.Len())
}

// ── cancel ────────────────────────────────────────────────────

func TestCancel_RemovesLockEvenWhenVendorFails(t *testing.T) {
	locks := newLocks(t)
	canceller := &mockCanceller{err: errors.New("vendor down")}
	rec := &mockRecorder{}
	a := New(locks, &mockBooker{}, canceller, rec, Config{}, logger.Discard())
	at := attempt(t, "R1", "P1", "2025-03-01", "2025-03-05")

	_, err := a.Book(context.Background(), at)
	require.NoError(t, err)

	out, err := a.Cancel(context.Background(), CancelRequest{
		VendorReservationID: "V-R1-P1",
		Lock:                model.ReservationLock{Identity: at.Identity, Range: at.Range},
	})
	require.NoError(t, err)
	assert.False(t, out.VendorAcknowledged)
	assert.Equal(t, "vendor down", out.VendorError)
	assert.True(t, out.LockRemoved)
	assert.False(t, locks.Holds(at.Identity, at.Range))
	assert.Equal(t, 1, canceller.calls)
	assert.Equal(t, 1, rec.cancels)

	_, err = a.Book(context.Background(), at)
	assert.NoError(t, err, "vehicle is bookable again after cancellation")
}

func TestCancel_UnknownLockIsNoop(t *testing.T) {
	a := New(newLocks(t), &mockBooker{}, &mockCanceller{}, nil, Config{}, logger.Discard())
	at := attempt(t, "R1", "P1", "2025-03-01", "2025-03-05")

	out, err := a.Cancel(context.Background(), CancelRequest{
		Lock: model.ReservationLock{Identity: at.Identity, Range: at.Range},
	})
	require.NoError(t, err)
	assert.True(t, out.VendorAcknowledged)
	assert.False(t, out.LockRemoved)
}

func TestCancel_MissingIdentity(t *testing.T) {
	canceller := &mockCanceller{}
	a := New(newLocks(t), &mockBooker{}, canceller, nil, Config{}, logger.Discard())

	_, err := a.Cancel(context.Background(), CancelRequest{
		Lock: model.ReservationLock{Range: dates(t, "2025-03-01", "2025-03-05")},
	})
	assert.True(t, errors.Is(err, reserrors.ErrMissingIdentity))
	assert.Zero(t, canceller.calls)
}
