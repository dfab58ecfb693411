// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"
	"strings"
	"time"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPSERT ... RETURNING for every number.
	// Guarantees sequential numbers without gaps.
	// Used for invoices and payments.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Faster, but may produce gaps if the process restarts.
	StrategyCached
)

// Reset periods.
const (
	ResetNever = "never"
	ResetMonth = "month"
	ResetDay   = "day"
)

// Document prefixes.
const (
	PrefixSalesQuotation = "SQ"
	PrefixSalesOrder     = "SO"
	PrefixDeliveryOrder  = "DO"
	PrefixInvoice        = "INV"
	PrefixPayment        = "PAY"
	PrefixSalesReturn    = "RET"
	PrefixGoodsReceipt   = "GR"
)

// batchSequence is the sequence name used for batch numbers, which carry no prefix.
const batchSequence = "BATCH"

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds numbering configuration.
type Config struct {
	// Sequence names the counter; defaults to Prefix.
	Sequence string

	// Prefix added to all numbers (e.g., "INV", "SO"). May be empty.
	Prefix string

	// PeriodLayout is the time layout embedded in the number (e.g. "200601").
	PeriodLayout string

	// PadWidth is the minimum width of the counter part.
	PadWidth int

	// ResetPeriod: "month", "day", "never"
	ResetPeriod string
}

// DocumentConfig returns the PREFIX-YYYYMM-NNNN scheme with a monthly reset.
func DocumentConfig(prefix string) Config {
	return Config{
		Sequence:     prefix,
		Prefix:       prefix,
		PeriodLayout: "200601",
		PadWidth:     4,
		ResetPeriod:  ResetMonth,
	}
}

// BatchConfig returns the YYYYMMDD-NNN scheme with a daily reset.
func BatchConfig() Config {
	return Config{
		Sequence:     batchSequence,
		PeriodLayout: "20060102",
		PadWidth:     3,
		ResetPeriod:  ResetDay,
	}
}

// Key builds the counter key for cfg at period.
func Key(cfg Config, period time.Time) string {
	seq := cfg.Sequence
	if seq == "" {
		seq = cfg.Prefix
	}
	switch cfg.ResetPeriod {
	case ResetMonth:
		return fmt.Sprintf("%s_%s", seq, period.Format("200601"))
	case ResetDay:
		return fmt.Sprintf("%s_%s", seq, period.Format("20060102"))
	default:
		return seq
	}
}

// Format renders counter value num for cfg at period.
func Format(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth <= 0 {
		padWidth = 4
	}

	parts := make([]string, 0, 3)
	if cfg.Prefix != "" {
		parts = append(parts, cfg.Prefix)
	}
	if cfg.PeriodLayout != "" {
		parts = append(parts, period.Format(cfg.PeriodLayout))
	}
	parts = append(parts, fmt.Sprintf("%0*d", padWidth, num))
	return strings.Join(parts, "-")
}
