package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/storefront-labs/orderpulse/internal/eventbus"
	"github.com/storefront-labs/orderpulse/internal/metrics"
)

// ConnectionState describes the push transport's connection status. It is
// owned by the transport; the store only mirrors it for consumers.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Snapshot is the backend's full point-in-time notification state.
type Snapshot struct {
	Notifications []Notification
	UnreadCount   int
}

// Backend is the REST surface the store confirms its mutations against.
type Backend interface {
	FetchNotifications(ctx context.Context) (Snapshot, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	ClearReadNotifications(ctx context.Context) error
}

const confirmTimeout = 15 * time.Second

// Store is the single source of truth for the notification list and unread
// count. All mutations apply locally first; backend confirmations are
// asynchronous and best-effort; a failed confirmation is logged and counted
// but never rolls local state back. The one exception is ClearAll, which
// recovers from a failed backend call by re-fetching the snapshot.
type Store struct {
	backend Backend
	bus     eventbus.EventBus
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	list   []Notification
	unread int
	conn   ConnectionState

	confirms sync.WaitGroup
}

// NewStore creates a Store. bus may be nil when no consumers need change
// events (one-shot commands); metrics may be nil in tests.
func NewStore(backend Backend, bus eventbus.EventBus, logger *slog.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		bus:     bus,
		logger:  logger,
		metrics: m,
	}
}

// LoadSnapshot fetches the full notification list from the backend and
// replaces local state wholesale. On failure prior state is left untouched
// and the error is returned; there is no automatic retry.
func (s *Store) LoadSnapshot(ctx context.Context) error {
	snap, err := s.backend.FetchNotifications(ctx)
	if err != nil {
		return fmt.Errorf("loading notification snapshot: %w", err)
	}

	list := make([]Notification, len(snap.Notifications))
	copy(list, snap.Notifications)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	unread := countUnread(list)
	if unread != snap.UnreadCount {
		// The entries are what consumers render; their count wins.
		s.logger.Debug("snapshot unread count disagrees with entries",
			slog.Int("server", snap.UnreadCount), slog.Int("computed", unread))
	}

	s.mu.Lock()
	s.list = list
	s.unread = unread
	s.mu.Unlock()

	s.metrics.SetUnread(unread)
	s.publish(eventbus.TypeSnapshotLoaded, map[string]string{
		"count":  strconv.Itoa(len(list)),
		"unread": strconv.Itoa(unread),
	})
	return nil
}

// IngestPushEvent merges one transport-delivered notification into the list.
// It is idempotent under at-least-once delivery: a duplicate id updates the
// existing entry in place (local read state wins) and never bumps the unread
// count a second time.
func (s *Store) IngestPushEvent(n Notification) {
	s.mu.Lock()
	if i := s.indexOf(n.ID); i >= 0 {
		// Keep the newest content, but a locally-read entry stays read.
		n.Read = n.Read || s.list[i].Read
		wasUnread := !s.list[i].Read
		s.list[i] = n
		if wasUnread && n.Read {
			s.unread--
		}
	} else {
		s.insertSorted(n)
		if !n.Read {
			s.unread++
		}
	}
	unread := s.unread
	s.mu.Unlock()

	s.metrics.SetUnread(unread)
	s.publish(eventbus.TypeReceived, map[string]string{
		"id":       n.ID,
		"category": string(n.Category),
	})
}

// MarkRead flips one notification to read and decrements the unread count
// before any network round-trip, then confirms with the backend
// asynchronously. Calling it again for an already-read id is a no-op.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || s.list[i].Read {
		s.mu.Unlock()
		return
	}
	s.list[i].Read = true
	s.unread--
	unread := s.unread
	s.mu.Unlock()

	s.metrics.SetUnread(unread)
	s.publish(eventbus.TypeRead, map[string]string{"id": id})

	s.confirmAsync("mark_read", func(ctx context.Context) error {
		return s.backend.MarkNotificationRead(ctx, id)
	})
}

// MarkAllRead flips every notification to read and zeroes the unread count
// synchronously, then issues one bulk confirmation call.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	for i := range s.list {
		s.list[i].Read = true
	}
	s.unread = 0
	s.mu.Unlock()

	s.metrics.SetUnread(0)
	s.publish(eventbus.TypeAllRead, nil)

	s.confirmAsync("mark_all_read", func(ctx context.Context) error {
		return s.backend.MarkAllNotificationsRead(ctx)
	})
}

// ClearAll empties the local list immediately, then asks the backend to
// clear read notifications. If that call fails the store resynchronizes by
// re-running LoadSnapshot rather than restoring the prior local state, so it
// ends in whatever state the backend actually holds.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.list = nil
	s.unread = 0
	s.mu.Unlock()

	s.metrics.SetUnread(0)
	s.publish(eventbus.TypeCleared, nil)

	s.confirms.Add(1)
	go func() {
		defer s.confirms.Done()
		ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
		defer cancel()
		if err := s.backend.ClearReadNotifications(ctx); err != nil {
			s.logger.Warn("clear-all confirmation failed, resyncing from backend",
				slog.String("error", err.Error()))
			s.metrics.ConfirmFailure("clear_all")
			if err := s.LoadSnapshot(ctx); err != nil {
				s.logger.Error("resync after failed clear-all",
					slog.String("error", err.Error()))
			}
		}
	}()
}

// SetConnection mirrors the transport's connection state for consumers.
func (s *Store) SetConnection(state ConnectionState) {
	s.mu.Lock()
	changed := s.conn != state
	s.conn = state
	s.mu.Unlock()

	if !changed {
		return
	}
	s.metrics.SetConnected(state == StateConnected)
	s.publish(eventbus.TypeConnection, map[string]string{"state": state.String()})
}

// Connection returns the mirrored transport connection state.
func (s *Store) Connection() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Notifications returns a copy of the list, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.list))
	copy(out, s.list)
	return out
}

// Notification returns the notification with the given id, if present.
func (s *Store) Notification(id string) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.list[i], true
	}
	return Notification{}, false
}

// UnreadCount returns the current unread count.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Close waits for in-flight backend confirmations to finish.
func (s *Store) Close() {
	s.confirms.Wait()
}

// confirmAsync runs a fire-and-forget backend confirmation. Failure is
// logged and counted; local state is deliberately not rolled back.
func (s *Store) confirmAsync(op string, call func(ctx context.Context) error) {
	s.confirms.Add(1)
	go func() {
		defer s.confirms.Done()
		ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
		defer cancel()
		if err := call(ctx); err != nil {
			s.logger.Warn("backend confirmation failed",
				slog.String("op", op), slog.String("error", err.Error()))
			s.metrics.ConfirmFailure(op)
		}
	}()
}

// indexOf returns the position of id in the list, or -1. Callers hold s.mu.
func (s *Store) indexOf(id string) int {
	for i := range s.list {
		if s.list[i].ID == id {
			return i
		}
	}
	return -1
}

// insertSorted places n so the list stays newest-first by CreatedAt.
// Equal timestamps keep the newcomer first, matching prepend semantics for
// bursts created in the same instant. Callers hold s.mu.
func (s *Store) insertSorted(n Notification) {
	pos := len(s.list)
	for i := range s.list {
		if !s.list[i].CreatedAt.After(n.CreatedAt) {
			pos = i
			break
		}
	}
	s.list = append(s.list, Notification{})
	copy(s.list[pos+1:], s.list[pos:])
	s.list[pos] = n
}

func (s *Store) publish(eventType string, payload map[string]string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, payload)
}

func countUnread(list []Notification) int {
	n := 0
	for i := range list {
		if !list[i].Read {
			n++
		}
	}
	return n
}
