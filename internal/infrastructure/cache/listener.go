package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"partsflow/pkg/logger"
)

// Notification channels raised by database triggers.
const (
	ChannelTaxRatesChanged = "tax_rates_changed"
	ChannelStockChanged    = "stock_changed"
)

// InvalidationListener is called for every notification on a subscribed channel.
type InvalidationListener func(channel, payload string)

// Listener holds a dedicated connection in LISTEN mode and dispatches
// PostgreSQL NOTIFY events to registered callbacks.
type Listener struct {
	pool *pgxpool.Pool

	listenersMu sync.RWMutex
	listeners   map[string][]InvalidationListener

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewListener creates a listener on pool. Subscribe before Start.
func NewListener(pool *pgxpool.Pool) *Listener {
	return &Listener{
		pool:      pool,
		listeners: make(map[string][]InvalidationListener),
		ctx:       context.Background(),
	}
}

// Subscribe registers fn for channel.
func (l *Listener) Subscribe(channel string, fn InvalidationListener) {
	l.listenersMu.Lock()
	l.listeners[channel] = append(l.listeners[channel], fn)
	l.listenersMu.Unlock()
}

// Start begins listening in the background.
func (l *Listener) Start(ctx context.Context) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
	logger.Info(l.ctx, "notification listener started", "channels", l.channels())
}

// Stop gracefully stops the listener.
func (l *Listener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.cancel = nil
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
	logger.Info(context.Background(), "notification listener stopped")
}

func (l *Listener) channels() []string {
	l.listenersMu.RLock()
	defer l.listenersMu.RUnlock()

	out := make([]string, 0, len(l.listeners))
	for ch := range l.listeners {
		out = append(out, ch)
	}
	return out
}

func (l *Listener) listenLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			l.sleep(time.Second)
			continue
		}

		if err := l.subscribe(conn); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			l.sleep(time.Second)
			continue
		}

		// A reconnect may have missed notifications.
		l.dispatch("", "")

		l.waitForNotifications(conn)
		conn.Release()
	}
}

func (l *Listener) subscribe(conn *pgxpool.Conn) error {
	var stmts []string
	for _, ch := range l.channels() {
		stmts = append(stmts, "LISTEN "+pgx.Identifier{ch}.Sanitize())
	}
	if len(stmts) == 0 {
		return fmt.Errorf("no channels subscribed")
	}
	_, err := conn.Exec(l.ctx, strings.Join(stmts, "; "))
	return err
}

func (l *Listener) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		// Timeout keeps shutdown responsive.
		ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
		cancel()

		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			if timedOut {
				continue
			}
			logger.Warn(l.ctx, "notification wait failed, reconnecting", "error", err)
			return
		}

		logger.Debug(l.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)
		l.dispatch(notification.Channel, notification.Payload)
	}
}

// dispatch delivers to listeners of channel; an empty channel means every listener.
func (l *Listener) dispatch(channel, payload string) {
	l.listenersMu.RLock()
	defer l.listenersMu.RUnlock()

	for ch, fns := range l.listeners {
		if channel != "" && ch != channel {
			continue
		}
		for _, fn := range fns {
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error(l.ctx, "listener panic recovered", "channel", ch, "panic", r)
					}
				}()
				fn(ch, payload)
			}()
		}
	}
}

func (l *Listener) sleep(d time.Duration) {
	select {
	case <-l.ctx.Done():
	case <-time.After(d):
	}
}
