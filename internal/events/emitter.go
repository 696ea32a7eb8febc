package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	emit Func = func(context.Context, string, WorkflowEvent) {}
)

// Emit delivers evt to the installed emitter, filling the session key from
// ctx when unset.
func Emit(ctx context.Context, name string, evt WorkflowEvent) {
	if evt.SessionKey == "" {
		evt.SessionKey = SessionFromContext(ctx)
	}
	mu.RLock()
	f := emit
	mu.RUnlock()
	f(ctx, name, evt)
}

// Func receives emitted events.
type Func func(ctx context.Context, name string, evt WorkflowEvent)

// LogEmitter writes events to logger at a level matching their type.
func LogEmitter(logger zerolog.Logger) Func {
	return func(ctx context.Context, name string, evt WorkflowEvent) {
		var e *zerolog.Event
		switch evt.Type {
		case EventError:
			e = logger.Error()
		case EventWarn:
			e = logger.Warn()
		case EventSuccess, EventInfo:
			e = logger.Info()
		default:
			e = logger.Debug()
		}
		e = e.Str("event", name).Str("type", string(evt.Type))
		if evt.SessionKey != "" {
			e = e.Str("session", evt.SessionKey)
		}
		if evt.Step != 0 {
			e = e.Int("step", evt.Step)
		}
		for k, v := range evt.Metadata {
			e = e.Str(k, v)
		}
		e.Msg(evt.Message)
	}
}

// EnableLogEmitter routes events to logger only.
func EnableLogEmitter(logger zerolog.Logger) {
	SetCustomEmitter(LogEmitter(logger))
}

// Fanout delivers each event to every non-nil emitter in order.
func Fanout(emitters ...Func) Func {
	return func(ctx context.Context, name string, evt WorkflowEvent) {
		for _, f := range emitters {
			if f != nil {
				f(ctx, name, evt)
			}
		}
	}
}

func SetCustomEmitter(f Func) {
	if f == nil {
		f = func(context.Context, string, WorkflowEvent) {}
	}
	mu.Lock()
	emit = f
	mu.Unlock()
}

// Recorder collects emitted events.
type Recorder struct {
	mu     sync.Mutex
	events []WorkflowEvent
	names  []string
}

func (r *Recorder) Record(_ context.Context, name string, evt WorkflowEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.events = append(r.events, evt)
}

func (r *Recorder) Events() []WorkflowEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]WorkflowEvent(nil), r.events...)
}

func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}
