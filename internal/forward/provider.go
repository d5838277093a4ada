// Package forward delivers incoming order notifications to an email inbox,
// so an admin who is not watching the terminal still hears about new orders.
// Forwarding is strictly best-effort: a failed delivery is logged and never
// affects the notification store.
package forward

import "context"

// Message is the content to be delivered by a Provider.
type Message struct {
	Subject string
	Body    string
	To      []string
}

// Provider is the interface for forwarding delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}
