package results

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := SuccessResult[int, error](42)
		require.True(t, r.IsSuccess())
		assert.False(t, r.IsFailure())
		assert.Equal(t, 42, *r.Success)
	})

	t.Run("failure", func(t *testing.T) {
		failErr := errors.New("no rows")
		r := FailureResult[int, error](failErr)
		require.True(t, r.IsFailure())
		assert.False(t, r.IsSuccess())
		assert.ErrorIs(t, *r.Failure, failErr)
	})

	t.Run("zero value is neither", func(t *testing.T) {
		var r OperationResult[string, error]
		assert.False(t, r.IsSuccess())
		assert.False(t, r.IsFailure())
	})
}

func TestMap(t *testing.T) {
	doubled := Map(SuccessResult[int, error](21), func(v int) int { return v * 2 })
	require.True(t, doubled.IsSuccess())
	assert.Equal(t, 42, *doubled.Success)

	failErr := errors.New("boom")
	failed := Map(FailureResult[int, error](failErr), func(v int) string { return "unused" })
	require.True(t, failed.IsFailure())
	assert.ErrorIs(t, *failed.Failure, failErr)
}
