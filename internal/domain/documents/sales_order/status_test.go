package sales_order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"partsflow/internal/domain/documents/sales_order"
)

func TestDeriveStatus(t *testing.T) {
	line := func(qty, fulfilled int64) sales_order.Line {
		return sales_order.Line{Quantity: qty, FulfilledQty: fulfilled}
	}

	tests := []struct {
		name  string
		lines []sales_order.Line
		want  sales_order.Status
	}{
		{"no lines", nil, sales_order.StatusProcessing},
		{"nothing picked", []sales_order.Line{line(5, 0), line(3, 0)}, sales_order.StatusProcessing},
		{"one line partly picked", []sales_order.Line{line(5, 2)}, sales_order.StatusPartialFulfilled},
		{"two of three lines done, third partial", []sales_order.Line{line(5, 5), line(3, 3), line(4, 1)}, sales_order.StatusPartialFulfilled},
		{"one line done, others untouched", []sales_order.Line{line(5, 5), line(3, 0)}, sales_order.StatusPartialFulfilled},
		{"every line done", []sales_order.Line{line(5, 5), line(3, 3), line(4, 4)}, sales_order.StatusFulfilled},
		{"over-picked line counts as done", []sales_order.Line{line(5, 6), line(3, 3)}, sales_order.StatusFulfilled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sales_order.DeriveStatus(tt.lines))
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, sales_order.StatusPartialFulfilled.CanTransitionTo(sales_order.StatusFulfilled))
	assert.False(t, sales_order.StatusFulfilled.CanTransitionTo(sales_order.StatusPartialFulfilled))
	assert.False(t, sales_order.StatusCancelled.CanTransitionTo(sales_order.StatusProcessing))
	assert.True(t, sales_order.StatusConfirmed.CanTransitionTo(sales_order.StatusCancelled))
}
