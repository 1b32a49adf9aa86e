package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientInventoryErrorUnwrapsSentinel(t *testing.T) {
	err := &InsufficientInventoryError{
		VariantID: uuid.New(),
		ColorID:   uuid.New(),
		Available: 5,
		Pending:   3,
		Requested: 4,
	}

	require.ErrorIs(t, err, ErrInsufficientInventory)

	wrapped := fmt.Errorf("create order line: %w", err)
	require.ErrorIs(t, wrapped, ErrInsufficientInventory)

	var detail *InsufficientInventoryError
	require.ErrorAs(t, wrapped, &detail)
	assert.Equal(t, int64(5), detail.Available)
	assert.Equal(t, int64(3), detail.Pending)
	assert.Equal(t, int64(4), detail.Requested)
}

func TestInternalWrap(t *testing.T) {
	err := Internal("insert invoice", errors.New("connection reset"))
	require.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrConflict)
}
