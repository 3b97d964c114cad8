package omit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	var body struct {
		Title    Omit[string] `json:"title"`
		Subtitle Omit[string] `json:"subtitle"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"title":""}`), &body))

	assert.True(t, body.Title.OK)
	assert.Equal(t, "", body.Title.Value)
	assert.False(t, body.Subtitle.OK)
	assert.Equal(t, "kept", body.Subtitle.Or("kept"))
}
