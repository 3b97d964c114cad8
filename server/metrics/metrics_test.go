package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingCounter(t *testing.T) {
	m := New()
	m.Booking("book", nil)
	m.Booking("book", nil)
	m.Booking("book", errors.New("already booked"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookings.WithLabelValues("book", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookings.WithLabelValues("book", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Booking("book", nil)
		m.WaitlistPromotion()
		m.Vote("award")
		m.Transition("finished")
		m.Achievements(2)
		m.Request(http.MethodGet, http.StatusOK, time.Second)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.Transition("running")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clubagenda_meeting_transitions_total{status="running"} 1`)
}
