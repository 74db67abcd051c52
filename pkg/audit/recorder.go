package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veristake/veristake/pkg/auth"
)

// Recorder is an in-memory Logger that keeps every event. Intended for
// tests asserting on the mutation trail.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	clock  func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{clock: time.Now}
}

func (r *Recorder) Record(ctx context.Context, eventType EventType, action, entityID string, payload map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		ID:        uuid.New().String(),
		ActorID:   auth.PrincipalID(ctx),
		Type:      eventType,
		Action:    action,
		EntityID:  entityID,
		Timestamp: r.clock().UTC(),
		Payload:   payload,
	})
	return nil
}

// Events returns a copy of recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Actions returns the recorded action names in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}
