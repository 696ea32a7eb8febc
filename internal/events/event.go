package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

const (
	WorkflowStep     = "events:workflow:step"
	WorkflowFile     = "events:workflow:file"
	WorkflowPipeline = "events:workflow:pipeline"
)

// WorkflowEvent reports progress of a generation stage.
type WorkflowEvent struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	Message    string            `json:"message"`
	Timestamp  time.Time         `json:"timestamp"`
	SessionKey string            `json:"sessionKey,omitempty"`
	Step       int               `json:"step,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type contextKey string

const sessionContextKey contextKey = "pagesmith/events/session"

// WithSession returns a derived context annotated with the given session key
// so emitters can scope payloads.
func WithSession(ctx context.Context, sessionKey string) context.Context {
	if strings.TrimSpace(sessionKey) == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey, sessionKey)
}

// SessionFromContext extracts the session key associated with ctx.
func SessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(sessionContextKey).(string); ok {
		return v
	}
	return ""
}

func newEvent(eventType EventType, step int, message string) WorkflowEvent {
	return WorkflowEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
		Step:      step,
	}
}

func NewInfo(step int, message string) WorkflowEvent {
	return newEvent(EventInfo, step, message)
}

func NewWarn(step int, message string) WorkflowEvent {
	return newEvent(EventWarn, step, message)
}

func NewError(step int, message string) WorkflowEvent {
	return newEvent(EventError, step, message)
}

func NewSuccess(step int, message string) WorkflowEvent {
	return newEvent(EventSuccess, step, message)
}

// With returns a copy of e carrying key=value in its metadata.
func (e WorkflowEvent) With(key, value string) WorkflowEvent {
	md := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	e.Metadata = md
	return e
}
