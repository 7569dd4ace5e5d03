package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindsSurviveWrapping(t *testing.T) {
	sentinel := NotFound("reservation_not_found", "reservation not found")
	wrapped := fmt.Errorf("delete reservation: %w", sentinel)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, ErrNotFound, KindOf(wrapped))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "reservation_not_found", appErr.Code)
}

func TestInvalidCarriesField(t *testing.T) {
	err := Invalid("amount", "negative_amount", "amount must not be negative")
	assert.Equal(t, ErrInvalidInput, KindOf(err))
	assert.Equal(t, "amount", err.Field)
	assert.Equal(t, "amount must not be negative", err.Error())
}

func TestExhaustedMessage(t *testing.T) {
	err := Exhausted(1600, 100)
	assert.True(t, errors.Is(err, ErrSequenceExhausted))
	assert.Contains(t, err.Error(), "1600")
	assert.Nil(t, KindOf(errors.New("plain")))
}
