package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppError_FindsWrapped(t *testing.T) {
	base := NewAlreadySignedError("p1")
	wrapped := fmt.Errorf("sign: %w", base)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeAlreadySigned, got.Code)
	assert.True(t, HasCode(wrapped, ErrCodeAlreadySigned))
}

func TestAsAppError_PlainError(t *testing.T) {
	_, ok := AsAppError(stderrors.New("boom"))
	assert.False(t, ok)

	_, ok = AsAppError(nil)
	assert.False(t, ok)
}

func TestAlreadySignedIsInvalidTransition(t *testing.T) {
	assert.True(t, NewAlreadySignedError("p1").IsInvalidTransition())
	assert.True(t, NewNotCompletedError("m1", "pending").IsInvalidTransition())
	assert.False(t, NewNotFoundError("Moment", "m1").IsInvalidTransition())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewStoreUnavailableError("get moment", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, err.IsInternal())
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "get moment", err.Details["operation"])
}
