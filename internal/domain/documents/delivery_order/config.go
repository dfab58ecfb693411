package delivery_order

import "partsflow/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyCached
)
