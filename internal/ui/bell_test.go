package ui_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/orderpulse/internal/notify"
	"github.com/storefront-labs/orderpulse/internal/ui"
)

// stubBackend counts confirmation calls; the UI must only reach the backend
// through store actions.
type stubBackend struct {
	mu           sync.Mutex
	markAllCalls int
	clearCalls   int
}

func (s *stubBackend) FetchNotifications(context.Context) (notify.Snapshot, error) {
	return notify.Snapshot{}, nil
}

func (s *stubBackend) MarkNotificationRead(context.Context, string) error { return nil }

func (s *stubBackend) MarkAllNotificationsRead(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markAllCalls++
	return nil
}

func (s *stubBackend) ClearReadNotifications(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	return nil
}

func newStore(be *stubBackend) *notify.Store {
	return notify.NewStore(be, nil, nil, nil)
}

func push(s *notify.Store, id, title string, read bool, at time.Time) {
	s.IngestPushEvent(notify.Notification{
		ID:        id,
		Category:  notify.CategoryOrderCreated,
		Title:     title,
		CreatedAt: at,
		Read:      read,
	})
}

func TestBadge(t *testing.T) {
	tests := []struct {
		unread int
		want   string
	}{
		{0, ""},
		{3, "3"},
		{9, "9"},
		{10, "9+"},
		{12, "9+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ui.Badge(tt.unread))
	}
}

func TestBell_StatusLineShowsBadgeAndDot(t *testing.T) {
	be := &stubBackend{}
	store := newStore(be)
	bell := ui.NewBell(store, 5)

	// No badge at zero unread.
	assert.NotContains(t, bell.StatusLine(), "9+")

	now := time.Now()
	for i := 0; i < 12; i++ {
		push(store, string(rune('a'+i)), "Order", false, now.Add(time.Duration(i)*time.Second))
	}
	assert.Contains(t, bell.StatusLine(), "9+")
}

func TestBell_RenderEmpty(t *testing.T) {
	bell := ui.NewBell(newStore(&stubBackend{}), 5)
	out := bell.Render()
	assert.Contains(t, out, "No notifications yet")
	assert.NotContains(t, out, "mark all read")
}

func TestBell_RenderListsNewestFirstUpToLimit(t *testing.T) {
	store := newStore(&stubBackend{})
	now := time.Now()
	push(store, "old", "Oldest order", false, now.Add(-2*time.Hour))
	push(store, "mid", "Middle order", false, now.Add(-time.Hour))
	push(store, "new", "Newest order", false, now)

	bell := ui.NewBell(store, 2)
	out := bell.Render()

	assert.Contains(t, out, "Newest order")
	assert.Contains(t, out, "Middle order")
	assert.NotContains(t, out, "Oldest order")
	assert.Contains(t, out, "and 1 more")
	// Newest row above the older one.
	assert.Less(t, strings.Index(out, "Newest order"), strings.Index(out, "Middle order"))
}

func TestBell_SelectMarksRead(t *testing.T) {
	store := newStore(&stubBackend{})
	push(store, "a", "Order", false, time.Now())
	bell := ui.NewBell(store, 5)

	bell.Select("a")
	assert.Equal(t, 0, store.UnreadCount())
	store.Close()
}

func TestBell_BulkActionsAreNoOpsOnEmptyList(t *testing.T) {
	be := &stubBackend{}
	store := newStore(be)
	bell := ui.NewBell(store, 5)

	bell.MarkAllRead()
	bell.ClearAll()
	store.Close()

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Zero(t, be.markAllCalls)
	assert.Zero(t, be.clearCalls)
}

func TestBell_BulkActionsFireWhenNonEmpty(t *testing.T) {
	be := &stubBackend{}
	store := newStore(be)
	push(store, "a", "Order", false, time.Now())
	bell := ui.NewBell(store, 5)

	bell.MarkAllRead()
	store.Close()

	be.mu.Lock()
	calls := be.markAllCalls
	be.mu.Unlock()
	require.Equal(t, 1, calls)
	assert.Equal(t, 0, store.UnreadCount())
}
