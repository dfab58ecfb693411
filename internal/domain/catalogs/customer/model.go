// Package customer provides the Customer catalog.
package customer

import (
	"context"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/entity"
)

// Customer is a buyer of spare parts (workshop, dealer, retail).
type Customer struct {
	entity.Catalog

	// Taxable customers are charged the default tax rate on orders and invoices
	Taxable bool `db:"taxable" json:"taxable"`

	// CreditTermDays is the default payment term for invoices
	CreditTermDays int `db:"credit_term_days" json:"creditTermDays"`

	Phone   *string `db:"phone" json:"phone,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`
}

// NewCustomer creates a new Customer with required fields.
func NewCustomer(code, name string, taxable bool, creditTermDays int) *Customer {
	return &Customer{
		Catalog:        entity.NewCatalog(code, name),
		Taxable:        taxable,
		CreditTermDays: creditTermDays,
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if c.CreditTermDays < 0 {
		return apperror.NewValidation("credit term cannot be negative").
			WithDetail("field", "creditTermDays")
	}
	return nil
}
