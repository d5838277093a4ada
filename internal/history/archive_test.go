package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/orderpulse/internal/history"
	"github.com/storefront-labs/orderpulse/internal/notify"
)

func newTestArchive(t *testing.T) *history.Archive {
	t.Helper()
	db, err := history.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return history.New(db, nil)
}

func TestArchiveRecordAndRecent(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	older := notify.Notification{
		ID:        "n1",
		Category:  notify.CategoryOrderCreated,
		Title:     "New order #1001",
		Customer:  "Asha Rao",
		Amount:    499,
		CreatedAt: base.Add(-time.Minute),
	}
	newer := notify.Notification{
		ID:        "n2",
		Category:  notify.CategoryPaymentReceived,
		Title:     "Payment received",
		Amount:    499,
		CreatedAt: base,
	}
	require.NoError(t, archive.Record(ctx, older))
	require.NoError(t, archive.Record(ctx, newer))

	list, err := archive.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, "n1", list[1].ID)
	assert.Equal(t, "Asha Rao", list[1].Customer)
}

func TestArchiveUpsertKeepsRead(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	n := notify.Notification{
		ID:        "n1",
		Category:  notify.CategoryOrderCreated,
		Title:     "New order",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, archive.Record(ctx, n))
	require.NoError(t, archive.MarkRead(ctx, "n1"))

	// A redelivered unread copy must not reset the read flag.
	require.NoError(t, archive.Record(ctx, n))

	list, err := archive.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)
	assert.True(t, list[0].Read)
}

func TestArchivePrune(t *testing.T) {
	archive := newTestArchive(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, archive.Record(ctx, notify.Notification{
		ID: "old", Category: notify.CategoryGeneric, CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, archive.Record(ctx, notify.Notification{
		ID: "fresh", Category: notify.CategoryGeneric, CreatedAt: now,
	}))

	removed, err := archive.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	list, err := archive.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fresh", list[0].ID)
}

func TestArchiveRecentDefaultLimit(t *testing.T) {
	archive := newTestArchive(t)

	list, err := archive.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
