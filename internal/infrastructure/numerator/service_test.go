package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "partsflow/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates sys_sequences with one counter per key.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	calls    int
	err      error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key := args[0].(string)
	switch {
	case strings.Contains(sql, "current_val = $2"):
		m.counters[key] = args[1].(int64)
	case len(args) == 2:
		m.counters[key] += args[1].(int64)
	default:
		m.counters[key]++
	}
	return &mockRow{val: m.counters[key]}
}

func newTestService(tx, pool *mockQuerier) *Service {
	return newService(func(context.Context) Querier { return tx }, pool)
}

func TestGetNextNumber_Strict(t *testing.T) {
	ctx := context.Background()
	tx, pool := newMockQuerier(), newMockQuerier()
	svc := newTestService(tx, pool)
	cfg := corenumerator.DocumentConfig(corenumerator.PrefixInvoice)
	march := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	first, err := svc.GetNextNumber(ctx, cfg, nil, march)
	require.NoError(t, err)
	second, err := svc.GetNextNumber(ctx, cfg, &corenumerator.Options{Strategy: corenumerator.StrategyStrict}, march)
	require.NoError(t, err)

	assert.Equal(t, "INV-202503-0001", first)
	assert.Equal(t, "INV-202503-0002", second)
	assert.Equal(t, 2, tx.calls)
	assert.Zero(t, pool.calls, "strict numbers must not bypass the transaction")
}

func TestGetNextNumber_Cached(t *testing.T) {
	ctx := context.Background()
	tx, pool := newMockQuerier(), newMockQuerier()
	svc := newTestService(tx, pool)
	cfg := corenumerator.DocumentConfig(corenumerator.PrefixSalesOrder)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 3}
	march := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	var got []string
	for range 4 {
		num, err := svc.GetNextNumber(ctx, cfg, opts, march)
		require.NoError(t, err)
		got = append(got, num)
	}

	assert.Equal(t, []string{"SO-202503-0001", "SO-202503-0002", "SO-202503-0003", "SO-202503-0004"}, got)
	assert.Equal(t, 2, pool.calls, "one range reservation per three numbers")
	assert.Zero(t, tx.calls)

	t.Run("new month starts a new counter", func(t *testing.T) {
		num, err := svc.GetNextNumber(ctx, cfg, opts, march.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.Equal(t, "SO-202504-0001", num)
	})
}

func TestSetNextNumber_DropsCachedRange(t *testing.T) {
	ctx := context.Background()
	tx, pool := newMockQuerier(), newMockQuerier()
	svc := newTestService(tx, pool)
	cfg := corenumerator.DocumentConfig(corenumerator.PrefixDeliveryOrder)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}
	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.GetNextNumber(ctx, cfg, opts, day)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, day, 100))
	assert.Equal(t, int64(100), tx.counters["DO_202506"])

	// The range is reserved again from the shared pool counter.
	pool.counters["DO_202506"] = 100
	num, err := svc.GetNextNumber(ctx, cfg, opts, day)
	require.NoError(t, err)
	assert.Equal(t, "DO-202506-0101", num)
}

func TestGetNextNumber_Error(t *testing.T) {
	tx := newMockQuerier()
	tx.err = errors.New("connection reset")
	svc := newTestService(tx, newMockQuerier())

	_, err := svc.GetNextNumber(context.Background(), corenumerator.BatchConfig(), nil, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	var nilSvc *Service
	_, err = nilSvc.GetNextNumber(context.Background(), corenumerator.BatchConfig(), nil, time.Now())
	assert.Error(t, err)
}
