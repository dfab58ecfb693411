package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/core/apperror"
	"partsflow/internal/core/types"
	"partsflow/internal/domain/catalogs/taxrate"
)

type countingSource struct {
	rate  *taxrate.TaxRate
	err   error
	calls int
}

func (s *countingSource) GetDefault(context.Context) (*taxrate.TaxRate, error) {
	s.calls++
	return s.rate, s.err
}

func TestTaxRateCache_GetDefault(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{rate: taxrate.NewTaxRate("VAT11", "VAT 11%", types.MustMoney("11"), true)}
	c := NewTaxRateCache(src, 0)

	first, err := c.GetDefault(ctx)
	require.NoError(t, err)
	second, err := c.GetDefault(ctx)
	require.NoError(t, err)

	assert.Equal(t, "11", first.Rate.String())
	assert.Equal(t, 1, src.calls)

	t.Run("returned rate is a copy", func(t *testing.T) {
		second.Rate = types.MustMoney("99")
		third, err := c.GetDefault(ctx)
		require.NoError(t, err)
		assert.Equal(t, "11", third.Rate.String())
	})

	t.Run("invalidate reloads", func(t *testing.T) {
		c.Invalidate()
		_, err := c.GetDefault(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, src.calls)
	})
}

func TestTaxRateCache_CachesMissingDefault(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{err: apperror.NewNotFound("tax rate", "default")}
	c := NewTaxRateCache(src, 0)

	for range 3 {
		_, err := c.GetDefault(ctx)
		assert.True(t, apperror.IsNotFound(err))
	}
	assert.Equal(t, 1, src.calls)
}

func TestTaxRateCache_DoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{err: errors.New("connection refused")}
	c := NewTaxRateCache(src, 0)

	_, err := c.GetDefault(ctx)
	require.Error(t, err)
	_, err = c.GetDefault(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestTaxRateCache_TTL(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{rate: taxrate.NewTaxRate("VAT11", "VAT 11%", types.MustMoney("11"), true)}
	c := NewTaxRateCache(src, time.Minute)

	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.GetDefault(ctx)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = c.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	now = now.Add(time.Minute)
	_, err = c.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestTaxRateCache_ListenInvalidates(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{rate: taxrate.NewTaxRate("VAT11", "VAT 11%", types.MustMoney("11"), true)}
	c := NewTaxRateCache(src, 0)
	l := NewListener(nil)
	c.Listen(l)

	_, err := c.GetDefault(ctx)
	require.NoError(t, err)

	l.dispatch(ChannelTaxRatesChanged, "")
	_, err = c.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	l.dispatch(ChannelStockChanged, "")
	_, err = c.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "other channels leave the cache alone")
}

func TestListener_RecoversFromPanics(t *testing.T) {
	l := NewListener(nil)
	var got []string
	l.Subscribe(ChannelStockChanged, func(string, string) { panic("boom") })
	l.Subscribe(ChannelStockChanged, func(_, payload string) { got = append(got, payload) })

	assert.NotPanics(t, func() { l.dispatch(ChannelStockChanged, "item-1") })
	assert.Equal(t, []string{"item-1"}, got)
}
