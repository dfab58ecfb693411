package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	period := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  Config
		num  int64
		want string
	}{
		{"sales order", DocumentConfig(PrefixSalesOrder), 1, "SO-202501-0001"},
		{"invoice wide counter", DocumentConfig(PrefixInvoice), 12345, "INV-202501-12345"},
		{"batch", BatchConfig(), 7, "20250115-007"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.cfg, period, tt.num))
		})
	}
}

func TestKey_ResetPeriods(t *testing.T) {
	jan := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	assert.NotEqual(t, Key(DocumentConfig("SO"), jan), Key(DocumentConfig("SO"), feb))
	assert.Equal(t, "BATCH_20250131", Key(BatchConfig(), jan))
	assert.Equal(t, "SO", Key(Config{Prefix: "SO", ResetPeriod: ResetNever}, jan))
}

func TestSequenceGenerator_ResetsPerMonth(t *testing.T) {
	ctx := context.Background()
	gen := NewSequenceGenerator()
	cfg := DocumentConfig(PrefixDeliveryOrder)
	jan := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)

	first, err := gen.GetNextNumber(ctx, cfg, nil, jan)
	require.NoError(t, err)
	second, err := gen.GetNextNumber(ctx, cfg, nil, jan)
	require.NoError(t, err)
	nextMonth, err := gen.GetNextNumber(ctx, cfg, nil, feb)
	require.NoError(t, err)

	assert.Equal(t, "DO-202501-0001", first)
	assert.Equal(t, "DO-202501-0002", second)
	assert.Equal(t, "DO-202502-0001", nextMonth)
}
