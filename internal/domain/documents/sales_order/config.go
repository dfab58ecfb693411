package sales_order

import "partsflow/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Orders are created often and gaps are acceptable, so numbers come from
	// cached ranges.
	NumeratorStrategy = numerator.StrategyCached
)
