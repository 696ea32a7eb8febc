package events

import (
	"context"
	"sync"
)

const subscriberBuffer = 32

// Message is one event as delivered to a subscriber.
type Message struct {
	Name  string        `json:"name"`
	Event WorkflowEvent `json:"event"`
}

// Broker fans events out to subscribers of a session. Slow subscribers miss
// events instead of blocking the emitter.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Message]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan Message]struct{})}
}

// Subscribe returns a channel of the session's events and a cancel func that
// closes it.
func (b *Broker) Subscribe(sessionKey string) (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)

	b.mu.Lock()
	if b.subs[sessionKey] == nil {
		b.subs[sessionKey] = make(map[chan Message]struct{})
	}
	b.subs[sessionKey][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[sessionKey], ch)
			if len(b.subs[sessionKey]) == 0 {
				delete(b.subs, sessionKey)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Emit publishes evt to the subscribers of its session. It satisfies Func.
func (b *Broker) Emit(_ context.Context, name string, evt WorkflowEvent) {
	if evt.SessionKey == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[evt.SessionKey] {
		select {
		case ch <- Message{Name: name, Event: evt}:
		default:
		}
	}
}

// Subscribers reports the number of open subscriptions for a session.
func (b *Broker) Subscribers(sessionKey string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionKey])
}
