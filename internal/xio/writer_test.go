package xio

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushCloser(t *testing.T) {
	rec := httptest.NewRecorder()

	w := NewFlushCloser(rec)
	_, err := w.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.True(t, rec.Flushed)
	assert.Equal(t, "png", rec.Body.String())
}
