package main

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsflow/internal/core/id"
	"partsflow/internal/domain"
	"partsflow/internal/infrastructure/cache"
	"partsflow/internal/infrastructure/storage/postgres"
	"partsflow/pkg/logger"
)

func TestEventHandler(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reports := cache.NewReportCache(client, time.Minute)
	handler := newEventHandler(reports, logger.NewNop())

	ver, err := reports.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), ver)

	msg := func(eventType string) *postgres.OutboxMessage {
		return &postgres.OutboxMessage{
			ID:            id.New(),
			AggregateType: domain.AggregateSalesOrder,
			AggregateID:   id.New(),
			EventType:     eventType,
		}
	}

	t.Run("stock event bumps report version", func(t *testing.T) {
		require.NoError(t, handler.Handle(ctx, msg(domain.EventSalesOrderCreated), []byte(`{}`)))

		ver, err := reports.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), ver)
	})

	t.Run("other events leave the cache alone", func(t *testing.T) {
		require.NoError(t, handler.Handle(ctx, msg(domain.EventInvoiceCreated), []byte(`{}`)))

		ver, err := reports.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), ver)
	})

	t.Run("redis failure is returned for retry", func(t *testing.T) {
		mr.Close()
		err := handler.Handle(ctx, msg(domain.EventGoodsReceived), nil)
		assert.Error(t, err)
	})
}

func TestEventHandler_WithoutCache(t *testing.T) {
	handler := newEventHandler(nil, logger.NewNop())
	err := handler.Handle(context.Background(), &postgres.OutboxMessage{EventType: domain.EventGoodsReceived}, nil)
	assert.NoError(t, err)
}

func TestWorker_Wake(t *testing.T) {
	w := &Worker{wake: make(chan struct{}, 1)}
	w.Wake()
	w.Wake()

	assert.Len(t, w.wake, 1)
}
