package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInsufficientStock_Shortfall(t *testing.T) {
	err := NewInsufficientStock("BRK-001", 160, 150)

	assert.Equal(t, CodeInsufficientStock, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "BRK-001", err.Details["itemCode"])
	assert.Equal(t, int64(10), err.Details["shortfall"])
	assert.Equal(t, int64(150), err.Details["available"])
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"not found", NewNotFound("sales order", "x"), IsNotFound},
		{"invalid state", NewInvalidState("delivery order", "picked", "complete picking"), IsInvalidState},
		{"insufficient stock", NewInsufficientStock("A", 2, 1), IsInsufficientStock},
		{"duplicate invoice", NewDuplicateInvoice("so", "INV-202501-0001"), IsDuplicateInvoice},
		{"validation", NewValidation("bad"), IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.pred(wrapped))
			assert.False(t, tt.pred(errors.New("plain")))
		})
	}
}

func TestAppError_WithCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(nil).WithCause(cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
}
