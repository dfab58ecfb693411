// Package cache provides caching infrastructure: a Redis report cache with
// versioned keys and in-process catalog caches invalidated via PostgreSQL
// LISTEN/NOTIFY.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"partsflow/internal/domain/reports"
	"partsflow/pkg/logger"
)

const (
	reportVersionKey = "partsflow:reports:version"

	// BumpChannel carries report cache version bumps between processes.
	BumpChannel = "partsflow.reports.bump"

	// maxKeyPart is the longest key segment kept verbatim; longer ones are hashed.
	maxKeyPart = 64
)

// ReportCache stores rendered reports in Redis. Every key embeds the current
// version, so Bump invalidates all reports at once without scanning keys.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

var _ reports.Cache = (*ReportCache)(nil)

// NewReportCache creates a report cache.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *ReportCache) Version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, reportVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SETNX so two processes initialising at once agree on the version.
		if err := c.client.SetNX(ctx, reportVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, reportVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey implements reports.Cache.
func (c *ReportCache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", fmt.Errorf("report cache version: %w", err)
	}

	segments := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		if len(p) > maxKeyPart {
			sum := sha256.Sum256([]byte(p))
			p = hex.EncodeToString(sum[:12])
		}
		segments = append(segments, p)
	}
	segments = append(segments, "v"+strconv.FormatInt(ver, 10))
	return strings.Join(segments, ":"), nil
}

// FetchJSON implements reports.Cache. Concurrent misses on one key share a
// single loader call.
func (c *ReportCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	ch := c.group.DoChan(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			logger.Warn(ctx, "report cache write failed", "key", key, "error", err)
		}
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

// Bump invalidates every cached report by incrementing the version.
func (c *ReportCache) Bump(ctx context.Context) error {
	ver, err := c.client.Incr(ctx, reportVersionKey).Result()
	if err != nil {
		return fmt.Errorf("bump report cache: %w", err)
	}
	return c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err()
}
