package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/storefront-labs/orderpulse/internal/notify"
)

// Archive stores a copy of every notification in SQLite. Recording is
// best-effort; a write failure never affects the live store.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

// New returns an Archive backed by db.
func New(db *sql.DB, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{db: db, logger: logger}
}

// Record upserts one notification. The full normalized notification is kept
// as JSON in the payload column so detail views work from the archive alone.
func (a *Archive) Record(ctx context.Context, n notify.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification %s: %w", n.ID, err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO notifications (id, category, title, message, related_order_id, customer, amount, read, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			read = MAX(read, excluded.read),
			payload = excluded.payload`,
		n.ID, string(n.Category), n.Title, n.Message, n.RelatedOrderID,
		n.Customer, n.Amount, boolToInt(n.Read), string(payload), n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("archiving notification %s: %w", n.ID, err)
	}
	return nil
}

// RecordEvent is Record shaped as a transport event handler. Failures are
// logged and swallowed.
func (a *Archive) RecordEvent(n notify.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Record(ctx, n); err != nil {
		a.logger.Warn("archive write failed", "id", n.ID, "error", err)
	}
}

// MarkRead flips the archived copy to read. Unknown ids are ignored.
func (a *Archive) MarkRead(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking archived notification %s read: %w", id, err)
	}
	return nil
}

// Recent returns the most recent archived notifications, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]notify.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT payload, read FROM notifications
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			a.logger.Warn("closing archive rows", "error", cerr)
		}
	}()

	var out []notify.Notification
	for rows.Next() {
		var (
			payload string
			read    int
		)
		if err := rows.Scan(&payload, &read); err != nil {
			return nil, fmt.Errorf("scanning archive row: %w", err)
		}
		var n notify.Notification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			return nil, fmt.Errorf("decoding archived notification: %w", err)
		}
		// The read column is authoritative; the payload may predate MarkRead.
		n.Read = read != 0
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating archive rows: %w", err)
	}
	return out, nil
}

// Prune deletes archived notifications older than the cutoff and returns the
// number removed.
func (a *Archive) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := a.db.ExecContext(ctx, "DELETE FROM notifications WHERE created_at < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning archive: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
