package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carbroker/internal/reservations/arbiter"
	"carbroker/internal/reservations/cache"
	"carbroker/internal/supplier/client"
	kafka_middleware "carbroker/pkg/kafka/middleware"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ cache.Observer                   = (*Metrics)(nil)
	_ arbiter.Recorder                 = (*Metrics)(nil)
	_ client.Observer                  = (*Metrics)(nil)
	_ kafka_middleware.PublishRecorder = (*Metrics)(nil)
)

func TestObservers(t *testing.T) {
	m := New()

	m.LocksChanged(3)
	m.PersistFailed()
	m.BookingFinished("committed", 200*time.Millisecond)
	m.BookingFinished("conflict", time.Millisecond)
	m.BookingFinished("committed", time.Second)
	m.CancelFinished(true)
	m.CancelFinished(false)
	m.VendorCall("availability", "ok", 50*time.Millisecond)
	m.MessagePublished("reservations.events", "booking.created", errors.New("down"), 0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveLocks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LockPersistFails))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingAttempts.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingAttempts.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cancellations.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VendorCalls.WithLabelValues("availability", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("booking.created", "failed")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.LocksChanged(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "carbroker_reservation_locks_active 2")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
