package foundation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	ok := Ok(42)
	assert.True(t, ok.IsOk())
	assert.False(t, ok.IsErr())
	assert.Equal(t, 42, ok.Unwrap())
	assert.NoError(t, ok.Err())

	boom := errors.New("boom")
	bad := Err[int](boom)
	assert.True(t, bad.IsErr())
	assert.Equal(t, boom, bad.Err())
	assert.Equal(t, 7, bad.UnwrapOr(7))
	assert.Panics(t, func() { bad.Unwrap() })

	v, err := bad.ToTuple()
	assert.Zero(t, v)
	assert.Equal(t, boom, err)
}
