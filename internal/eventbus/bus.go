// Package eventbus provides an in-memory, asynchronous event bus used to fan
// notification-state changes out to UI consumers. Events are dispatched
// through a buffered channel by a single goroutine, so listeners observe
// events in publish order.
package eventbus

import (
	"log/slog"
	"sync"
	"time"
)

const defaultBufferSize = 256

// EventBus is the interface for publishing events and managing subscribers.
type EventBus interface {
	// Publish enqueues an event with the given type and payload.
	// It never blocks: if the buffer is full, the event is dropped and a warning is logged.
	Publish(eventType string, payload map[string]string)

	// Subscribe registers a listener called for every subsequently published
	// event (broadcast). The returned cancel function removes the listener;
	// after it returns the listener receives no further events, so a consumer
	// being torn down can stop its own updates without affecting others.
	Subscribe(listener Listener) (cancel func())

	// Close stops accepting new events and waits for all pending events to be processed.
	Close()
}

// inMemoryBus is the default EventBus implementation.
type inMemoryBus struct {
	ch        chan Event
	listeners map[int]Listener
	nextID    int
	mu        sync.Mutex
	wg        sync.WaitGroup
	logger    *slog.Logger
	closeOnce sync.Once
}

// New creates a new in-memory EventBus.
func New(logger *slog.Logger) EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &inMemoryBus{
		ch:        make(chan Event, defaultBufferSize),
		listeners: make(map[int]Listener),
		logger:    logger,
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// run is the single dispatcher goroutine. One goroutine, not a pool:
// consumers rely on observing store changes in publish order.
func (b *inMemoryBus) run() {
	defer b.wg.Done()
	for e := range b.ch {
		b.dispatch(e)
	}
}

// dispatch calls all registered listeners for the given event.
// Each listener is invoked with panic recovery to prevent one bad listener
// from affecting others.
func (b *inMemoryBus) dispatch(e Event) {
	b.mu.Lock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.Unlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Warn("eventbus listener panicked",
						slog.String("event", e.Type), slog.Any("panic", r))
				}
			}()
			l(e)
		}()
	}
}

// Publish enqueues an event. If the buffer is full the event is dropped.
func (b *inMemoryBus) Publish(eventType string, payload map[string]string) {
	e := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	select {
	case b.ch <- e:
	default:
		b.logger.Warn("eventbus buffer full, dropping event", slog.String("event", eventType))
	}
}

// Subscribe adds a listener and returns a cancel function that removes it.
func (b *inMemoryBus) Subscribe(listener Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Close drains and closes the event channel, then waits for the dispatcher to finish.
// Safe to call more than once.
func (b *inMemoryBus) Close() {
	b.closeOnce.Do(func() {
		close(b.ch)
		b.wg.Wait()
	})
}
