package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records confirmation calls and serves a canned snapshot.
type fakeBackend struct {
	mu sync.Mutex

	snapshot    Snapshot
	snapshotErr error

	markReadIDs  []string
	markReadErr  error
	markAllCalls int
	markAllGate  chan struct{} // when set, MarkAllNotificationsRead blocks on it
	clearCalls   int
	clearErr     error
}

func (f *fakeBackend) FetchNotifications(_ context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshotErr != nil {
		return Snapshot{}, f.snapshotErr
	}
	return f.snapshot, nil
}

func (f *fakeBackend) MarkNotificationRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadIDs = append(f.markReadIDs, id)
	return f.markReadErr
}

func (f *fakeBackend) MarkAllNotificationsRead(_ context.Context) error {
	f.mu.Lock()
	gate := f.markAllGate
	f.markAllCalls++
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return nil
}

func (f *fakeBackend) ClearReadNotifications(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	return f.clearErr
}

func (f *fakeBackend) readIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.markReadIDs...)
}

func notif(id string, createdAt time.Time, read bool) Notification {
	return Notification{
		ID:        id,
		Category:  CategoryOrderCreated,
		Title:     "New order",
		CreatedAt: createdAt,
		Read:      read,
	}
}

// requireInvariant asserts that the unread count equals the number of
// entries with Read == false.
func requireInvariant(t *testing.T, s *Store) {
	t.Helper()
	want := 0
	for _, n := range s.Notifications() {
		if !n.Read {
			want++
		}
	}
	require.Equal(t, want, s.UnreadCount())
	require.GreaterOrEqual(t, s.UnreadCount(), 0)
}

func TestLoadSnapshot_ReplacesStateWholesale(t *testing.T) {
	t0 := time.Now().Add(-time.Hour)
	be := &fakeBackend{snapshot: Snapshot{
		Notifications: []Notification{notif("a", t0, false)},
		UnreadCount:   1,
	}}
	s := NewStore(be, nil, nil, nil)

	require.NoError(t, s.LoadSnapshot(context.Background()))
	require.Len(t, s.Notifications(), 1)
	assert.Equal(t, 1, s.UnreadCount())
	requireInvariant(t, s)
}

func TestLoadSnapshot_FailureLeavesStateUntouched(t *testing.T) {
	t0 := time.Now()
	be := &fakeBackend{snapshot: Snapshot{
		Notifications: []Notification{notif("a", t0, false)},
		UnreadCount:   1,
	}}
	s := NewStore(be, nil, nil, nil)
	require.NoError(t, s.LoadSnapshot(context.Background()))

	be.mu.Lock()
	be.snapshotErr = errors.New("backend down")
	be.mu.Unlock()

	err := s.LoadSnapshot(context.Background())
	require.Error(t, err)
	assert.Len(t, s.Notifications(), 1)
	assert.Equal(t, 1, s.UnreadCount())
}

func TestIngest_DedupeByID(t *testing.T) {
	s := NewStore(&fakeBackend{}, nil, nil, nil)
	n := notif("a", time.Now(), false)

	s.IngestPushEvent(n)
	s.IngestPushEvent(n)

	assert.Len(t, s.Notifications(), 1)
	assert.Equal(t, 1, s.UnreadCount())
	requireInvariant(t, s)
}

func TestIngest_DuplicateNeverResurrectsUnread(t *testing.T) {
	s := NewStore(&fakeBackend{}, nil, nil, nil)
	n := notif("a", time.Now(), false)

	s.IngestPushEvent(n)
	s.MarkRead("a")
	s.IngestPushEvent(n) // redelivery of the original unread event

	assert.Equal(t, 0, s.UnreadCount())
	require.Len(t, s.Notifications(), 1)
	assert.True(t, s.Notifications()[0].Read)
	requireInvariant(t, s)
	s.Close()
}

func TestIngest_NewestFirstIndependentOfArrivalOrder(t *testing.T) {
	s := NewStore(&fakeBackend{}, nil, nil, nil)
	base := time.Now()
	t1, t2, t3 := base.Add(1*time.Minute), base.Add(2*time.Minute), base.Add(3*time.Minute)

	s.IngestPushEvent(notif("n2", t2, false))
	s.IngestPushEvent(notif("n1", t1, false))
	s.IngestPushEvent(notif("n3", t3, false))

	got := s.Notifications()
	require.Len(t, got, 3)
	assert.Equal(t, "n3", got[0].ID)
	assert.Equal(t, "n2", got[1].ID)
	assert.Equal(t, "n1", got[2].ID)
}

func TestMarkRead_OptimisticAndConfirmed(t *testing.T) {
	be := &fakeBackend{}
	s := NewStore(be, nil, nil, nil)
	s.IngestPushEvent(notif("a", time.Now(), false))

	s.MarkRead("a")

	// Local state flips synchronously.
	assert.True(t, s.Notifications()[0].Read)
	assert.Equal(t, 0, s.UnreadCount())

	s.Close()
	assert.Equal(t, []string{"a"}, be.readIDs())
}

func TestMarkRead_IdempotentSecondCall(t *testing.T) {
	be := &fakeBackend{}
	s := NewStore(be, nil, nil, nil)
	s.IngestPushEvent(notif("a", time.Now(), false))

	s.MarkRead("a")
	s.MarkRead("a")
	s.MarkRead("missing")

	assert.Equal(t, 0, s.UnreadCount())
	requireInvariant(t, s)

	s.Close()
	// Second and bogus calls issue no extra confirmations.
	assert.Equal(t, []string{"a"}, be.readIDs())
}

func TestMarkRead_FailureDoesNotRollBack(t *testing.T) {
	be := &fakeBackend{markReadErr: errors.New("503")}
	s := NewStore(be, nil, nil, nil)
	s.IngestPushEvent(notif("a", time.Now(), false))

	s.MarkRead("a")
	s.Close()

	// Confirmation failed but the optimistic state is kept.
	assert.True(t, s.Notifications()[0].Read)
	assert.Equal(t, 0, s.UnreadCount())
}

func TestMarkAllRead_SynchronouslyZeroesBeforeBackendResponds(t *testing.T) {
	gate := make(chan struct{})
	be := &fakeBackend{markAllGate: gate}
	s := NewStore(be, nil, nil, nil)

	now := time.Now()
	for i, read := range []bool{false, true, false, true, false} {
		s.IngestPushEvent(notif(string(rune('a'+i)), now.Add(time.Duration(i)*time.Second), read))
	}
	require.Equal(t, 3, s.UnreadCount())

	s.MarkAllRead()

	// The bulk confirmation is still blocked; local state is already final.
	assert.Equal(t, 0, s.UnreadCount())
	for _, n := range s.Notifications() {
		assert.True(t, n.Read)
	}
	requireInvariant(t, s)

	close(gate)
	s.Close()
	assert.Equal(t, 1, be.markAllCalls)
}

func TestSnapshotThenPushMerge(t *testing.T) {
	t0 := time.Now().Add(-time.Minute)
	t1 := time.Now()
	be := &fakeBackend{snapshot: Snapshot{
		Notifications: []Notification{notif("a", t0, false)},
		UnreadCount:   1,
	}}
	s := NewStore(be, nil, nil, nil)
	require.NoError(t, s.LoadSnapshot(context.Background()))

	s.IngestPushEvent(notif("b", t1, false))

	got := s.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, 2, s.UnreadCount())
}

func TestClearAll_FailureRecoversByRefetch(t *testing.T) {
	t0 := time.Now()
	// Backend is "offline" for the clear call but still holds the pre-clear
	// items, which the recovery refetch must restore.
	be := &fakeBackend{
		clearErr: errors.New("network unreachable"),
		snapshot: Snapshot{
			Notifications: []Notification{notif("a", t0, false), notif("b", t0.Add(time.Second), true)},
			UnreadCount:   1,
		},
	}
	s := NewStore(be, nil, nil, nil)
	require.NoError(t, s.LoadSnapshot(context.Background()))

	s.ClearAll()

	// Wipe is immediate.
	assert.Empty(t, s.Notifications())
	assert.Equal(t, 0, s.UnreadCount())

	s.Close()

	// After the failed confirmation the store resynchronized with the backend.
	assert.Len(t, s.Notifications(), 2)
	assert.Equal(t, 1, s.UnreadCount())
	requireInvariant(t, s)
}

func TestClearAll_SuccessStaysEmpty(t *testing.T) {
	be := &fakeBackend{snapshot: Snapshot{
		Notifications: []Notification{notif("a", time.Now(), true)},
	}}
	s := NewStore(be, nil, nil, nil)
	require.NoError(t, s.LoadSnapshot(context.Background()))

	s.ClearAll()
	s.Close()

	assert.Empty(t, s.Notifications())
	assert.Equal(t, 0, s.UnreadCount())
	assert.Equal(t, 1, be.clearCalls)
}

func TestCountInvariantUnderMixedOperations(t *testing.T) {
	be := &fakeBackend{}
	s := NewStore(be, nil, nil, nil)
	now := time.Now()

	s.IngestPushEvent(notif("a", now, false))
	requireInvariant(t, s)
	s.IngestPushEvent(notif("b", now.Add(time.Second), false))
	requireInvariant(t, s)
	s.IngestPushEvent(notif("a", now, false)) // duplicate
	requireInvariant(t, s)
	s.MarkRead("b")
	requireInvariant(t, s)
	s.MarkAllRead()
	requireInvariant(t, s)
	s.IngestPushEvent(notif("c", now.Add(2*time.Second), false))
	requireInvariant(t, s)
	s.ClearAll()
	requireInvariant(t, s)

	s.Close()
}

func TestConcurrentMarkReadKeepsInvariant(t *testing.T) {
	be := &fakeBackend{}
	s := NewStore(be, nil, nil, nil)
	now := time.Now()
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i, id := range ids {
		s.IngestPushEvent(notif(id, now.Add(time.Duration(i)*time.Second), false))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.MarkRead(id)
			s.MarkRead(id)
		}(id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.MarkAllRead()
	}()
	wg.Wait()

	assert.Equal(t, 0, s.UnreadCount())
	requireInvariant(t, s)
	s.Close()
}

func TestSetConnection(t *testing.T) {
	s := NewStore(&fakeBackend{}, nil, nil, nil)
	assert.Equal(t, StateDisconnected, s.Connection())

	s.SetConnection(StateConnected)
	assert.Equal(t, StateConnected, s.Connection())

	s.SetConnection(StateDisconnected)
	assert.Equal(t, StateDisconnected, s.Connection())
}
