// Package events implements RenderQ's in-process event bus: a best-effort
// publish/subscribe mechanism used to notify the event stream and any other
// in-process observers of job, task and worker state changes.
package events

import (
	"sync"
	"time"
)

// EventType is one of the closed set of event kinds RenderQ emits. Callers
// outside this package never construct new kinds at runtime.
type EventType string

const (
	JobSubmitted  EventType = "job.submitted"
	JobStarted    EventType = "job.started"
	JobProgress   EventType = "job.progress"
	JobCompleted  EventType = "job.completed"
	JobFailed     EventType = "job.failed"
	JobCancelled  EventType = "job.cancelled"
	JobSuspended  EventType = "job.suspended"
	JobResumed    EventType = "job.resumed"
	TaskAssigned  EventType = "task.assigned"
	TaskStarted   EventType = "task.started"
	TaskProgress  EventType = "task.progress"
	TaskCompleted EventType = "task.completed"
	TaskFailed    EventType = "task.failed"
	WorkerConnect EventType = "worker.connected"
	WorkerOffline EventType = "worker.disconnected"
	WorkerBeat    EventType = "worker.heartbeat"
)

// Event is the envelope delivered to subscribers and, ultimately, streamed
// to connected clients as JSON.
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber is a channel that receives events.
type Subscriber chan *Event

// Bus manages event subscriptions and best-effort distribution. Delivery
// never blocks the publisher: a subscriber with a full buffer simply misses
// the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 256),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the bus's distribution loop.
func (b *Bus) Start() {
	go b.run()
}

// Stop stops the bus.
func (b *Bus) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns its channel.
func (b *Bus) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 64)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish emits an event to every current subscriber. The caller's event
// type and data are wrapped with the current time. If the bus's queue is
// full the event is dropped rather than blocking the caller.
func (b *Bus) Publish(typ EventType, data any) {
	event := &Event{Type: typ, Data: data, Timestamp: time.Now()}
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	default:
	}
}

func (b *Bus) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bus) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// subscriber buffer full, drop
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
