package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"partsflow/internal/core/apperror"
	"partsflow/internal/domain/catalogs/taxrate"
)

// TaxRateCache memoises the default tax rate. A missing default is cached too,
// so taxable orders do not query the catalog while none is configured.
type TaxRateCache struct {
	source taxrate.DefaultRateProvider
	ttl    time.Duration
	now    func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	rate     *taxrate.TaxRate
	notFound error
	loadedAt time.Time
	valid    bool
}

var _ taxrate.DefaultRateProvider = (*TaxRateCache)(nil)

// NewTaxRateCache creates a cache over source. A zero ttl keeps entries until
// Invalidate.
func NewTaxRateCache(source taxrate.DefaultRateProvider, ttl time.Duration) *TaxRateCache {
	return &TaxRateCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetDefault implements taxrate.DefaultRateProvider.
func (c *TaxRateCache) GetDefault(ctx context.Context) (*taxrate.TaxRate, error) {
	if rate, err, ok := c.cached(); ok {
		return rate, err
	}

	v, err, _ := c.group.Do("default", func() (any, error) {
		rate, err := c.source.GetDefault(ctx)
		switch {
		case err == nil:
			c.store(rate, nil)
		case apperror.IsNotFound(err):
			c.store(nil, err)
		default:
			return nil, err
		}
		return rate, err
	})
	if err != nil {
		return nil, err
	}
	return copyRate(v.(*taxrate.TaxRate)), nil
}

// Invalidate drops the cached value.
func (c *TaxRateCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.rate = nil
	c.notFound = nil
	c.mu.Unlock()
}

// Listen invalidates the cache whenever tax rates change in the database.
func (c *TaxRateCache) Listen(l *Listener) {
	l.Subscribe(ChannelTaxRatesChanged, func(string, string) { c.Invalidate() })
}

func (c *TaxRateCache) cached() (*taxrate.TaxRate, error, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid || (c.ttl > 0 && c.now().Sub(c.loadedAt) > c.ttl) {
		return nil, nil, false
	}
	if c.notFound != nil {
		return nil, c.notFound, true
	}
	return copyRate(c.rate), nil, true
}

func (c *TaxRateCache) store(rate *taxrate.TaxRate, notFound error) {
	c.mu.Lock()
	c.rate = copyRate(rate)
	c.notFound = notFound
	c.loadedAt = c.now()
	c.valid = true
	c.mu.Unlock()
}

// copyRate keeps callers from mutating cached state.
func copyRate(r *taxrate.TaxRate) *taxrate.TaxRate {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}
