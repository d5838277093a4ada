package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/orderpulse/internal/eventbus"
	"github.com/storefront-labs/orderpulse/internal/metrics"
	"github.com/storefront-labs/orderpulse/internal/notify"
)

type noopBackend struct{}

func (noopBackend) FetchNotifications(_ context.Context) (notify.Snapshot, error) {
	return notify.Snapshot{}, nil
}
func (noopBackend) MarkNotificationRead(_ context.Context, _ string) error    { return nil }
func (noopBackend) MarkAllNotificationsRead(_ context.Context) error          { return nil }
func (noopBackend) ClearReadNotifications(_ context.Context) error            { return nil }

func newTestServer(t *testing.T) (*Server, *notify.Store) {
	t.Helper()
	bus := eventbus.New(slog.Default())
	t.Cleanup(func() { bus.Close() })
	store := notify.NewStore(noopBackend{}, bus, slog.Default(), nil)
	t.Cleanup(func() { store.Close() })
	return New(store, nil, 0, slog.Default()), store
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStateEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	store.IngestPushEvent(notify.Notification{
		ID:        "n1",
		Category:  notify.CategoryOrderCreated,
		Title:     "New order",
		CreatedAt: time.Now(),
	})

	req := httptest.NewRequest("GET", "/state", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)

	var state struct {
		Connection    string                `json:"connection"`
		UnreadCount   int                   `json:"unreadCount"`
		Notifications []notify.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "disconnected", state.Connection)
	assert.Equal(t, 1, state.UnreadCount)
	require.Len(t, state.Notifications, 1)
	assert.Equal(t, "n1", state.Notifications[0].ID)
}

func TestMetricsEndpoint(t *testing.T) {
	bus := eventbus.New(slog.Default())
	t.Cleanup(func() { bus.Close() })
	store := notify.NewStore(noopBackend{}, bus, slog.Default(), nil)
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	m.EventReceived()
	srv := New(store, m, 0, slog.Default())

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "orderpulse_push_events_received_total")
}
