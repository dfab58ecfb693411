package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/core/apperror"
)

type lineInput struct {
	ItemCode string `json:"itemCode" validate:"required"`
	Quantity int64  `json:"quantity" validate:"gt=0"`
}

type orderInput struct {
	CustomerCode string      `json:"customerCode" validate:"required"`
	Lines        []lineInput `json:"lines" validate:"required,min=1,dive"`
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in := orderInput{CustomerCode: "C1", Lines: []lineInput{{ItemCode: "A", Quantity: 1}}}
		assert.NoError(t, Struct(in))
	})

	t.Run("reports json field paths", func(t *testing.T) {
		in := orderInput{Lines: []lineInput{{ItemCode: "A", Quantity: 0}}}
		err := Struct(in)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)

		fields := appErr.Details["fields"].(map[string]string)
		assert.Equal(t, "required", fields["customerCode"])
		assert.Equal(t, "gt=0", fields["lines[0].quantity"])
	})

	t.Run("empty lines", func(t *testing.T) {
		err := Struct(orderInput{CustomerCode: "C1"})
		assert.True(t, apperror.IsValidation(err))
	})
}
