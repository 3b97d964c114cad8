package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrap(t *testing.T) {
	a := errors.New("a")
	b := errors.New("b")

	assert.Equal(t, []error{a, b}, Unwrap(errors.Join(a, b)))
	assert.Equal(t, []error{a}, Unwrap(a))
	assert.Nil(t, Unwrap(nil))
}
