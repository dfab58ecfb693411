package item

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/types"
)

func TestItem_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		it := NewItem("BRK-001", "Brake pad", "set", types.MustMoney("100000"))
		assert.NoError(t, it.Validate(context.Background()))
	})

	t.Run("missing unit", func(t *testing.T) {
		it := NewItem("BRK-001", "Brake pad", "", types.MustMoney("100000"))
		assert.True(t, apperror.IsValidation(it.Validate(context.Background())))
	})

	t.Run("negative price", func(t *testing.T) {
		it := NewItem("BRK-001", "Brake pad", "set", types.MustMoney("-1"))
		assert.True(t, apperror.IsValidation(it.Validate(context.Background())))
	})
}

func TestItem_IsLowStock(t *testing.T) {
	it := NewItem("OIL-10W", "Engine oil", "liter", types.MustMoney("65000"))
	assert.False(t, it.IsLowStock(0), "no threshold")

	it.MinStock = 10
	assert.True(t, it.IsLowStock(10))
	assert.False(t, it.IsLowStock(11))
}
