package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/app/apptest"
	"partsflow/internal/core/apperror"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/documents/invoice"
	"partsflow/internal/domain/documents/payment"
)

func setup(t *testing.T) (*apptest.Brakes, *invoice.Invoice) {
	t.Helper()
	b := apptest.NewBrakes(t, false)
	order := b.Pick(t, b.Order(t, 120), 120)
	inv, err := b.Services.Invoices.Create(context.Background(), invoice.CreateInput{SalesOrderID: order.ID})
	require.NoError(t, err)
	return b, inv
}

func TestService_RecordPayment(t *testing.T) {
	ctx := context.Background()
	b, inv := setup(t)

	p, updated, err := b.Services.Payments.RecordPayment(ctx, payment.Input{
		InvoiceID: inv.ID,
		Amount:    types.MustMoney("5000000"),
		Method:    payment.MethodBankTransfer,
		Reference: "TRF-0001",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^PAY-\d{6}-0001$`, p.Number)
	assert.Equal(t, invoice.StatusPartialPaid, updated.Status)
	assert.True(t, types.MustMoney("7000000").Equal(updated.RemainingAmount))

	t.Run("overpayment is rejected", func(t *testing.T) {
		_, _, err := b.Services.Payments.RecordPayment(ctx, payment.Input{
			InvoiceID: inv.ID,
			Amount:    types.MustMoney("7000000.01"),
			Method:    payment.MethodCash,
		})
		assert.True(t, apperror.IsValidation(err))

		stored, err := b.Services.Invoices.GetByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.True(t, types.MustMoney("5000000").Equal(stored.PaidAmount))
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		_, _, err := b.Services.Payments.RecordPayment(ctx, payment.Input{
			InvoiceID: inv.ID,
			Amount:    types.Zero(),
			Method:    payment.MethodCash,
		})
		assert.True(t, apperror.IsValidation(err))
	})

	_, settled, err := b.Services.Payments.RecordPayment(ctx, payment.Input{
		InvoiceID: inv.ID,
		Amount:    types.MustMoney("7000000"),
		Method:    payment.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, settled.Status)
	assert.True(t, settled.RemainingAmount.IsZero())
	assert.True(t, settled.PaidAmount.Add(settled.RemainingAmount).Equal(settled.GrandTotal))

	t.Run("paid invoice accepts no payments", func(t *testing.T) {
		_, _, err := b.Services.Payments.RecordPayment(ctx, payment.Input{
			InvoiceID: inv.ID,
			Amount:    types.MustMoney("1"),
			Method:    payment.MethodCash,
		})
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("paid invoice cannot be cancelled", func(t *testing.T) {
		_, err := b.Services.Invoices.Cancel(ctx, inv.ID)
		assert.True(t, apperror.IsInvalidState(err))
	})

	payments, err := b.Services.Payments.ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestService_RecordPayment_Validation(t *testing.T) {
	ctx := context.Background()
	b, inv := setup(t)

	_, _, err := b.Services.Payments.RecordPayment(ctx, payment.Input{
		InvoiceID: inv.ID,
		Amount:    types.MustMoney("10"),
		Method:    payment.Method("barter"),
	})
	assert.True(t, apperror.IsValidation(err))

	_, _, err = b.Services.Payments.RecordPayment(ctx, payment.Input{
		InvoiceID: inv.ID,
		Amount:    types.MustMoney("10"),
	})
	assert.True(t, apperror.IsValidation(err))
}
