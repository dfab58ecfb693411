package numerator

import (
	"context"
	"sync"
	"time"
)

// SequenceGenerator is an in-process Generator keeping counters in a map.
// Used by the memory storage backend and in unit tests.
type SequenceGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewSequenceGenerator creates an empty in-process generator.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{counters: make(map[string]int64)}
}

// GetNextNumber implements Generator.
func (g *SequenceGenerator) GetNextNumber(_ context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := Key(cfg, period)
	g.counters[key]++
	return Format(cfg, period, g.counters[key]), nil
}

// SetNextNumber implements Generator.
func (g *SequenceGenerator) SetNextNumber(_ context.Context, cfg Config, period time.Time, value int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counters[Key(cfg, period)] = value
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*SequenceGenerator)(nil)
