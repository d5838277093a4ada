package ui

import (
	"strconv"
	"strings"

	"github.com/storefront-labs/orderpulse/internal/notify"
)

const defaultBellLimit = 8

// Bell is the compact always-visible consumer: an unread badge, a connection
// dot, and a short list of the most recent notifications.
type Bell struct {
	store *notify.Store
	limit int
}

// NewBell creates a Bell showing at most limit recent notifications
// (a sensible default when limit <= 0).
func NewBell(store *notify.Store, limit int) *Bell {
	if limit <= 0 {
		limit = defaultBellLimit
	}
	return &Bell{store: store, limit: limit}
}

// Badge returns the unread badge text: empty at zero, the count up to 9,
// and "9+" above that.
func Badge(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > 9:
		return "9+"
	default:
		return strconv.Itoa(unread)
	}
}

// StatusLine renders the one-line bell summary: connection dot, title, badge.
func (b *Bell) StatusLine() string {
	dot := disconnectedDot
	if b.store.Connection() == notify.StateConnected {
		dot = connectedDot
	}

	line := dot + " " + titleStyle.Render("Order Notifications")
	if badge := Badge(b.store.UnreadCount()); badge != "" {
		line += " " + badgeStyle.Render(badge)
	}
	return line
}

// Render renders the dropdown: the status line plus the recent notifications,
// newest first, with the available actions. An empty list gets a placeholder
// and no actions.
func (b *Bell) Render() string {
	var sb strings.Builder
	sb.WriteString(b.StatusLine())
	sb.WriteString("\n")

	list := b.store.Notifications()
	if len(list) == 0 {
		sb.WriteString(dimStyle.Render("No notifications yet"))
		return sb.String()
	}

	shown := list
	if len(shown) > b.limit {
		shown = shown[:b.limit]
	}
	for _, n := range shown {
		sb.WriteString(Row(n))
		sb.WriteString("\n")
	}
	if len(list) > b.limit {
		sb.WriteString(dimStyle.Render("… and " + strconv.Itoa(len(list)-b.limit) + " more\n"))
	}
	sb.WriteString(dimStyle.Render("[enter] mark read  [a] mark all read  [c] clear all  [q] close"))
	return sb.String()
}

// Row renders a single notification line: group icon, title and relative age.
func Row(n notify.Notification) string {
	title := n.Title
	if !n.Read {
		title = unreadStyle.Render(title)
	}
	return iconFor(n.Category.Group()) + " " + title + dimStyle.Render("  "+timeAgo(n.CreatedAt))
}

// Select marks the chosen notification read.
func (b *Bell) Select(id string) {
	b.store.MarkRead(id)
}

// MarkAllRead marks everything read. No-op on an empty list.
func (b *Bell) MarkAllRead() {
	if len(b.store.Notifications()) == 0 {
		return
	}
	b.store.MarkAllRead()
}

// ClearAll clears the list. No-op on an empty list.
func (b *Bell) ClearAll() {
	if len(b.store.Notifications()) == 0 {
		return
	}
	b.store.ClearAll()
}
