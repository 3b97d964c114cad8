package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	err := fmt.Errorf("failed to book: %w", Conflict("%s is already booked as %s", "Alice", "Timer"))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
	assert.False(t, Is(errors.New("plain"), KindConflict))
}

func TestFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "domain", err: CapacityExceeded("waitlist is full"), want: KindCapacityExceeded},
		{name: "no rows", err: fmt.Errorf("failed to get meeting: %w", sql.ErrNoRows), want: KindNotFound},
		{name: "other", err: errors.New("boom"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, From(tt.err).Kind)
		})
	}
}

func TestNotFoundOr(t *testing.T) {
	err := NotFoundOr(fmt.Errorf("failed to get meeting: %w", sql.ErrNoRows), "meeting %d not found", 7)
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "meeting 7 not found", From(err).Message)

	other := errors.New("boom")
	assert.Same(t, other, NotFoundOr(other, "unused"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, KindCapacityExceeded.HTTPStatus())
	assert.Equal(t, http.StatusPreconditionFailed, KindPreconditionFailed.HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, KindTooManyRequests.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Kind("unknown").HTTPStatus())
}
