package eventbus

import "time"

// Event types published by the notification store.
const (
	TypeSnapshotLoaded = "notifications.snapshot_loaded"
	TypeReceived       = "notifications.received"
	TypeRead           = "notifications.read"
	TypeAllRead        = "notifications.all_read"
	TypeCleared        = "notifications.cleared"
	TypeConnection     = "transport.connection_changed"
)

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)
