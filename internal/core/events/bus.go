package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultHistoryCapacity bounds the retained event log.
const DefaultHistoryCapacity = 1000

// Handler receives delivered events.
type Handler func(Event)

// Config contains runtime options for Bus.
type Config struct {
	HistoryCapacity int
	Now             func() time.Time
}

type listener struct {
	id      uint64
	handler Handler
	removed atomic.Bool
}

// Bus is the in-process publish/subscribe router. Delivery is serialized:
// an Emit issued while another delivery is running is appended to the
// history immediately and delivered once the running delivery completes.
type Bus struct {
	mu          sync.Mutex
	log         *zap.Logger
	now         func() time.Time
	listeners   map[Type][]*listener
	nextID      uint64
	history     []Event
	head        int
	size        int
	seq         uint64
	queue       []Event
	dispatching bool
}

// Stats is a point-in-time view of the bus.
type Stats struct {
	Listeners    int
	TotalEmitted uint64
	HistoryLen   int
}

// NewBus creates a bus with the provided configuration.
func NewBus(config Config, logger *zap.Logger) *Bus {
	if config.HistoryCapacity <= 0 {
		config.HistoryCapacity = DefaultHistoryCapacity
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		log:       logger.Named("bus"),
		now:       config.Now,
		listeners: make(map[Type][]*listener),
		history:   make([]Event, config.HistoryCapacity),
	}
}

// Subscribe registers handler for eventType. The returned function removes
// the subscription; calling it more than once is a no-op.
func (bus *Bus) Subscribe(eventType Type, handler Handler) func() {
	bus.mu.Lock()
	bus.nextID++
	entry := &listener{id: bus.nextID, handler: handler}
	bus.listeners[eventType] = append(bus.listeners[eventType], entry)
	bus.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			bus.unsubscribe(eventType, entry)
		})
	}
}

// On subscribes a handler typed on its payload.
func On[P Payload](bus *Bus, handler func(P, Event)) func() {
	var zero P
	return bus.Subscribe(zero.EventType(), func(event Event) {
		payload, ok := event.Data.(P)
		if !ok {
			return
		}
		handler(payload, event)
	})
}

func (bus *Bus) unsubscribe(eventType Type, target *listener) {
	target.removed.Store(true)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	current := bus.listeners[eventType]
	for i, entry := range current {
		if entry.id != target.id {
			continue
		}
		// Copy so snapshots taken by an in-flight delivery stay intact.
		next := make([]*listener, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		if len(next) == 0 {
			delete(bus.listeners, eventType)
		} else {
			bus.listeners[eventType] = next
		}
		return
	}
}

// Emit records payload in the history and delivers it to every handler
// registered for its type, in registration order.
func (bus *Bus) Emit(payload Payload) {
	if payload == nil {
		return
	}

	bus.mu.Lock()
	bus.seq++
	event := Event{
		Seq:       bus.seq,
		Type:      payload.EventType(),
		Data:      payload,
		Timestamp: bus.now(),
	}
	bus.appendHistoryLocked(event)
	bus.queue = append(bus.queue, event)
	if bus.dispatching {
		bus.mu.Unlock()
		return
	}
	bus.dispatching = true

	for len(bus.queue) > 0 {
		next := bus.queue[0]
		bus.queue[0] = Event{}
		bus.queue = bus.queue[1:]
		targets := bus.listeners[next.Type]
		bus.mu.Unlock()

		for _, entry := range targets {
			if entry.removed.Load() {
				continue
			}
			bus.deliver(entry, next)
		}

		bus.mu.Lock()
	}
	bus.queue = nil
	bus.dispatching = false
	bus.mu.Unlock()
}

func (bus *Bus) deliver(entry *listener, event Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			bus.log.Error("subscriber failed",
				zap.String("event_type", string(event.Type)),
				zap.Uint64("seq", event.Seq),
				zap.String("panic", fmt.Sprint(recovered)),
			)
		}
	}()
	entry.handler(event)
}

func (bus *Bus) appendHistoryLocked(event Event) {
	capacity := len(bus.history)
	if bus.size < capacity {
		bus.history[(bus.head+bus.size)%capacity] = event
		bus.size++
		return
	}
	bus.history[bus.head] = event
	bus.head = (bus.head + 1) % capacity
}

// GetRecentEvents returns up to count of the most recent retained events of
// eventType, oldest first. An empty eventType matches every kind and a
// non-positive count returns all matches.
func (bus *Bus) GetRecentEvents(eventType Type, count int) []Event {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	capacity := len(bus.history)
	matches := make([]Event, 0)
	for i := bus.size - 1; i >= 0; i-- {
		event := bus.history[(bus.head+i)%capacity]
		if eventType != "" && event.Type != eventType {
			continue
		}
		matches = append(matches, event)
		if count > 0 && len(matches) == count {
			break
		}
	}
	for left, right := 0, len(matches)-1; left < right; left, right = left+1, right-1 {
		matches[left], matches[right] = matches[right], matches[left]
	}
	return matches
}

// Stats returns current bus statistics.
func (bus *Bus) Stats() Stats {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	listeners := 0
	for _, entries := range bus.listeners {
		listeners += len(entries)
	}
	return Stats{
		Listeners:    listeners,
		TotalEmitted: bus.seq,
		HistoryLen:   bus.size,
	}
}
