// Package audit records the structured mutation trail for the engine.
// Every state change in the claim ledger, trust oracle, and bounty vault
// emits one Event; replaying the trail reconstructs the full history.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veristake/veristake/pkg/auth"
)

// EventType defines the category of the audit event.
type EventType string

const (
	EventMutation EventType = "MUTATION"
	EventSystem   EventType = "SYSTEM"
)

// Event represents a structured audit record.
type Event struct {
	ID        string                 `json:"id"`
	ActorID   string                 `json:"actor_id"`
	Type      EventType              `json:"type"`
	Action    string                 `json:"action"`
	EntityID  string                 `json:"entity_id"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Logger defines the interface for recording audit events.
type Logger interface {
	Record(ctx context.Context, eventType EventType, action, entityID string, payload map[string]interface{}) error
}

// logger implements Logger, writing structured JSON to a configurable Writer.
type logger struct {
	mu     sync.Mutex
	writer io.Writer
	clock  func() time.Time
}

// NewLogger creates a Logger writing to os.Stdout.
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a Logger writing to the given writer.
// This allows injection for testing and custom sinks.
func NewLoggerWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &logger{writer: w, clock: time.Now}
}

func (l *logger) Record(ctx context.Context, eventType EventType, action, entityID string, payload map[string]interface{}) error {
	event := Event{
		ID:        uuid.New().String(),
		ActorID:   auth.PrincipalID(ctx),
		Type:      eventType,
		Action:    action,
		EntityID:  entityID,
		Timestamp: l.clock().UTC(),
		Payload:   payload,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// Prefix with AUDIT: for easy filtering
	_, err = l.writer.Write(append([]byte("AUDIT: "), append(bytes, '\n')...))
	return err
}

// Nop returns a Logger that discards everything. Useful in tests that do
// not assert on the trail.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Record(context.Context, EventType, string, string, map[string]interface{}) error {
	return nil
}
