// Package events carries lifecycle notifications from the download manager
// to presentation observers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ytget/ryt/internal/model"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventJobUpdated       EventType = "job_updated"       // Any field of an active job changed
	EventHistoryRefreshed EventType = "history_refreshed" // Projection rebuilt from the library (or failed to)
	EventHistoryCleared   EventType = "history_cleared"   // Library cleared after confirmation
	EventClearRequested   EventType = "clear_requested"   // User asked to clear, awaiting confirmation
	EventClearCancelled   EventType = "clear_cancelled"   // User backed out of the clear
)

// Buffer bounds for subscriber channels
const (
	DefaultBufferSize = 256
	MaxBufferSize     = 4096
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// JobEvent carries a copy of a job after a state change
type JobEvent struct {
	BaseEvent
	Job       model.Job
	OldStatus model.JobStatus
}

// HistoryEvent describes the library projection after a refresh or clear
type HistoryEvent struct {
	BaseEvent
	Count int
	Err   error
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if bufferSize > MaxBufferSize {
		bufferSize = MaxBufferSize
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Slow subscribers lose events; the manager's snapshot stays authoritative.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishJob is a convenience method for publishing job updates
func (eb *EventBus) PublishJob(job model.Job, oldStatus model.JobStatus) {
	eb.Publish(&JobEvent{
		BaseEvent: BaseEvent{
			EventType: EventJobUpdated,
			Time:      time.Now(),
		},
		Job:       job,
		OldStatus: oldStatus,
	})
}

// PublishHistory is a convenience method for publishing projection changes
func (eb *EventBus) PublishHistory(eventType EventType, count int, err error) {
	eb.Publish(&HistoryEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Time:      time.Now(),
		},
		Count: count,
		Err:   err,
	})
}

// UnsubscribeAll removes a subscription channel from every event type
// and closes it.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	var found chan Event
	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				found = subCh
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			found = subCh
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}

	if found != nil {
		close(found)
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
