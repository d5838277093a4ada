// Package session carries the authenticated admin session as an explicit
// value. The token is never read from ambient process state by the packages
// that need it; whoever owns the login flow constructs a Session and injects
// it into the transport and the backend client.
package session

import "errors"

// ErrNoToken is returned when a Session is constructed without a token.
var ErrNoToken = errors.New("session: missing admin token")

// Session identifies one authenticated admin session.
type Session struct {
	// Token is the bearer token presented to both the REST API and the
	// push channel.
	Token string

	// AdminID is informational only, used for log correlation.
	AdminID string
}

// New validates and returns a Session for the given token.
func New(token, adminID string) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	return &Session{Token: token, AdminID: adminID}, nil
}
