package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veristake/veristake/pkg/audit"
	"github.com/veristake/veristake/pkg/auth"
)

// StoreLogger is an audit.Logger that writes events to the EventStore.
type StoreLogger struct {
	store *EventStore
	clock func() time.Time
}

func NewStoreLogger(s *EventStore) *StoreLogger {
	return &StoreLogger{store: s, clock: time.Now}
}

// WithClock overrides the clock for testing.
func (l *StoreLogger) WithClock(clock func() time.Time) *StoreLogger {
	l.clock = clock
	return l
}

func (l *StoreLogger) Record(ctx context.Context, eventType audit.EventType, action, entityID string, payload map[string]interface{}) error {
	if l.store == nil {
		return fmt.Errorf("fail-closed: event store not configured")
	}
	return l.store.Append(ctx, audit.Event{
		ID:        uuid.New().String(),
		ActorID:   auth.PrincipalID(ctx),
		Type:      eventType,
		Action:    action,
		EntityID:  entityID,
		Timestamp: l.clock().UTC(),
		Payload:   payload,
	})
}
