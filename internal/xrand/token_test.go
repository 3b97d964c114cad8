package xrand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToken(t *testing.T) {
	a := Token()
	b := Token()

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
