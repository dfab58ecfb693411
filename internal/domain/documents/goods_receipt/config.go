package goods_receipt

import "partsflow/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// GoodsReceipt is a primary accounting document, so we use Strict strategy.
	NumeratorStrategy = numerator.StrategyStrict
)
