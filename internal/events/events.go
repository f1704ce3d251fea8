package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/neuropassword/npass/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	// Session lifecycle: tokens stored or cleared
	EventSessionChanged EventType = "session_changed"

	// The API reported the session invalid; the session has already been cleared
	EventAuthFailure EventType = "auth_failure"

	// The folder collection changed (fetch, create, rename, delete)
	EventFoldersChanged EventType = "folders_changed"

	// A client-side navigation happened
	EventNavigate EventType = "navigate"

	// A user action failed and the error should be surfaced
	EventError EventType = "error"
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

// SessionEvent is published whenever tokens are stored or cleared.
type SessionEvent struct {
	BaseEvent
	Authenticated bool
	Reason        string // "login", "logout", "unauthorized"
}

// AuthFailureEvent is published when a request came back 401.
type AuthFailureEvent struct {
	BaseEvent
	Method     string
	Path       string
	RedirectTo string
}

// FoldersChangedEvent describes a change to the folder collection.
type FoldersChangedEvent struct {
	BaseEvent
	Op        string // "fetch", "create", "rename", "delete", "clear"
	FolderID  string
	Count     int
	FromCache bool
}

// NavigateEvent represents a client-side route change.
type NavigateEvent struct {
	BaseEvent
	From    string
	To      string
	Replace bool
}

// ErrorEvent represents a failed user action.
type ErrorEvent struct {
	BaseEvent
	Op      string
	Message string
	Error   error
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
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

// Publish sends an event to all subscribers without blocking. Events for a
// full subscriber are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}

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

// PublishSession is a convenience method for publishing session events
func (eb *EventBus) PublishSession(authenticated bool, reason string) {
	eb.Publish(&SessionEvent{
		BaseEvent:     BaseEvent{EventType: EventSessionChanged, Time: time.Now()},
		Authenticated: authenticated,
		Reason:        reason,
	})
}

// PublishAuthFailure is a convenience method for publishing 401 notifications
func (eb *EventBus) PublishAuthFailure(method, path, redirectTo string) {
	eb.Publish(&AuthFailureEvent{
		BaseEvent:  BaseEvent{EventType: EventAuthFailure, Time: time.Now()},
		Method:     method,
		Path:       path,
		RedirectTo: redirectTo,
	})
}

// PublishFoldersChanged is a convenience method for publishing folder changes
func (eb *EventBus) PublishFoldersChanged(op, folderID string, count int, fromCache bool) {
	eb.Publish(&FoldersChangedEvent{
		BaseEvent: BaseEvent{EventType: EventFoldersChanged, Time: time.Now()},
		Op:        op,
		FolderID:  folderID,
		Count:     count,
		FromCache: fromCache,
	})
}

// PublishNavigate is a convenience method for publishing route changes
func (eb *EventBus) PublishNavigate(from, to string, replace bool) {
	eb.Publish(&NavigateEvent{
		BaseEvent: BaseEvent{EventType: EventNavigate, Time: time.Now()},
		From:      from,
		To:        to,
		Replace:   replace,
	})
}

// PublishError is a convenience method for publishing surfaced errors
func (eb *EventBus) PublishError(op, message string, err error) {
	eb.Publish(&ErrorEvent{
		BaseEvent: BaseEvent{EventType: EventError, Time: time.Now()},
		Op:        op,
		Message:   message,
		Error:     err,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
// This prevents memory leaks from abandoned subscriptions
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
// Use this when cleaning up a subscriber that subscribed to multiple event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
