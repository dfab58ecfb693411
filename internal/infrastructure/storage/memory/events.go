package memory

import (
	"context"
	"slices"

	"partsflow/internal/domain"
)

// EventLog implements domain.EventPublisher. Events are appended to the
// store state, so they roll back with the surrounding transaction.
type EventLog struct {
	store *Store
}

// EventLog returns the event publisher of the store.
func (s *Store) EventLog() *EventLog {
	return &EventLog{store: s}
}

// Publish implements domain.EventPublisher.
func (l *EventLog) Publish(ctx context.Context, event domain.Event) error {
	return l.store.do(ctx, func(st *state) error {
		st.events = append(st.events, event)
		return nil
	})
}

// Events returns the published events in order.
func (l *EventLog) Events(ctx context.Context) []domain.Event {
	var out []domain.Event
	_ = l.store.do(ctx, func(st *state) error {
		out = slices.Clone(st.events)
		return nil
	})
	return out
}

var _ domain.EventPublisher = (*EventLog)(nil)
