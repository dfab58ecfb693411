package invoice

import "partsflow/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Invoices are fiscal documents, so numbers must have no gaps.
	NumeratorStrategy = numerator.StrategyStrict
)
