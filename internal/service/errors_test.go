package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorKinds(t *testing.T) {
	fe := invalid("items[0].quantity", "must be a positive integer")
	assert.ErrorIs(t, fe, ErrValidation)
	assert.Equal(t, "items[0].quantity: must be a positive integer", fe.Error())

	stock := &InsufficientStockError{Index: 1, ProductID: uuid.New(), Requested: 9, Available: 8}
	wrapped := fmt.Errorf("create order: %w", stock)
	assert.ErrorIs(t, wrapped, ErrConflict)

	var target *InsufficientStockError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, 1, target.Index)

	assert.ErrorIs(t, notFound(gorm.ErrRecordNotFound, "order"), ErrNotFound)
	other := errors.New("boom")
	assert.Same(t, other, notFound(other, "order"))
}
