package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Action classifies what an audit event records.
type Action string

const (
	ActionCreate                 Action = "Create"
	ActionUpdate                 Action = "Update"
	ActionDelete                 Action = "Delete"
	ActionLogin                  Action = "Login"
	ActionLogout                 Action = "Logout"
	ActionLoginFailed            Action = "LoginFailed"
	ActionPasswordChanged        Action = "PasswordChanged"
	ActionPasswordResetRequested Action = "PasswordResetRequested"
	ActionEmailConfirmed         Action = "EmailConfirmed"
	ActionUserLockedOut          Action = "UserLockedOut"
	ActionUserUnlocked           Action = "UserUnlocked"
	ActionRoleAssigned           Action = "RoleAssigned"
	ActionRoleRemoved            Action = "RoleRemoved"
	ActionView                   Action = "View"
	ActionSystemEvent            Action = "SystemEvent"
)

// Event is the canonical audit event model used by internal dispatching and root APIs.
type Event struct {
	Timestamp   time.Time       `json:"timestamp"`
	Action      Action          `json:"action"`
	ActorID     string          `json:"actor_id,omitempty"`
	ActorName   string          `json:"actor_name,omitempty"`
	EntityType  string          `json:"entity_type,omitempty"`
	EntityID    string          `json:"entity_id,omitempty"`
	EntityName  string          `json:"entity_name,omitempty"`
	Description string          `json:"description,omitempty"`
	OldValues   json.RawMessage `json:"old_values,omitempty"`
	NewValues   json.RawMessage `json:"new_values,omitempty"`
	IP          string          `json:"ip,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
}

// Sink receives emitted audit events. Implementations must not block
// indefinitely and must never panic; failures stay inside the sink.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
