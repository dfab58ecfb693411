package main

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"

	"partsflow/internal/app"
	appctx "partsflow/internal/core/context"
	"partsflow/internal/domain"
	"partsflow/internal/infrastructure/cache"
	"partsflow/internal/infrastructure/storage/postgres"
	"partsflow/pkg/logger"
)

const relayLockKey = "partsflow:lock:outbox-relay"

// reportBumper is the part of the report cache the relay needs.
type reportBumper interface {
	Bump(ctx context.Context) error
}

// Worker relays outbox events and cleans up expired system rows.
type Worker struct {
	rt     *app.Runtime
	log    *logger.Logger
	relay  *postgres.OutboxRelay
	locker *redislock.Client
	wake   chan struct{}
}

// NewWorker builds a worker over a postgres runtime.
func NewWorker(rt *app.Runtime, log *logger.Logger) *Worker {
	w := &Worker{
		rt:   rt,
		log:  log.WithComponent("worker"),
		wake: make(chan struct{}, 1),
	}

	var bumper reportBumper
	if rt.ReportCache != nil {
		bumper = rt.ReportCache
	}
	w.relay = postgres.NewOutboxRelay(rt.TxManager, rt.Codec, rt.Config.OutboxBatchSize, newEventHandler(bumper, w.log))

	if rt.Redis != nil {
		w.locker = redislock.New(rt.Redis)
	}
	if rt.Listener != nil {
		rt.Listener.Subscribe(cache.ChannelStockChanged, func(string, string) { w.Wake() })
	}
	return w
}

// Wake triggers a relay pass before the next poll tick.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// RunRelay drains the outbox until ctx is done.
func (w *Worker) RunRelay(ctx context.Context) error {
	ticker := time.NewTicker(w.rt.Config.OutboxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-w.wake:
		}
		w.relayOnce(ctx)
	}
}

func (w *Worker) relayOnce(ctx context.Context) {
	ctx = appctx.WithJobTrace(ctx, "outbox-relay")
	log := w.log.WithContext(ctx)

	if w.locker != nil {
		lock, err := w.locker.Obtain(ctx, relayLockKey, w.rt.Config.OutboxPollInterval*10, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return
		}
		if err != nil {
			log.Warnw("could not obtain relay lock; relaying without it", "error", err)
		} else {
			defer func() { _ = lock.Release(context.WithoutCancel(ctx)) }()
		}
	}

	for {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Errorw("outbox batch failed", "error", err)
			}
			return
		}
		if n > 0 {
			log.Debugw("relayed outbox batch", "count", n)
		}
		if n < w.rt.Config.OutboxBatchSize {
			return
		}
	}
}

// RunHousekeeping periodically dead-letters exhausted events and purges old rows.
func (w *Worker) RunHousekeeping(ctx context.Context) error {
	ticker := time.NewTicker(w.rt.Config.HousekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.housekeep(ctx)
		}
	}
}

func (w *Worker) housekeep(ctx context.Context) {
	ctx = appctx.WithJobTrace(ctx, "housekeeping")
	log := w.log.WithContext(ctx)

	if n, err := w.relay.MoveToDLQ(ctx); err != nil {
		log.Errorw("move outbox to dlq failed", "error", err)
	} else if n > 0 {
		log.Warnw("outbox events moved to dlq", "count", n)
	}

	if n, err := w.relay.PurgePublished(ctx, w.rt.Config.OutboxRetention); err != nil {
		log.Errorw("purge outbox failed", "error", err)
	} else if n > 0 {
		log.Infow("purged published outbox events", "count", n)
	}

	if n, err := w.rt.Idempotency.CleanupExpired(ctx); err != nil {
		log.Errorw("cleanup idempotency keys failed", "error", err)
	} else if n > 0 {
		log.Infow("cleaned up idempotency keys", "count", n)
	}
}

// WatchPool logs pool statistics until ctx is done.
func (w *Worker) WatchPool(ctx context.Context) error {
	postgres.WatchPoolStats(ctx, w.rt.Pool, w.rt.Config.PoolStatsPeriod)
	return nil
}

// newEventHandler invalidates cached reports after stock-affecting events.
func newEventHandler(reports reportBumper, log *logger.Logger) postgres.OutboxHandler {
	return postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage, payload []byte) error {
		log.Debugw("outbox event",
			"event_type", msg.EventType,
			"aggregate_type", msg.AggregateType,
			"aggregate_id", msg.AggregateID,
			"payload_bytes", len(payload),
		)
		if reports != nil && domain.StockEvents[msg.EventType] {
			return reports.Bump(ctx)
		}
		return nil
	})
}
