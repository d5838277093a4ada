// Package ui renders the notification bell and the notification center for
// the terminal. Both are read-only views over the notify.Store plus action
// dispatchers; neither talks to the transport or the backend.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/storefront-labs/orderpulse/internal/notify"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	unreadStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	badgeStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)
	connectedDot    = lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Render("●")
	disconnectedDot = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Render("●")
	sectionStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	errorBlockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("52")).
			Padding(0, 1)
	statusBadgeStyle = lipgloss.NewStyle().Reverse(true).Padding(0, 1)
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

// iconFor returns the glyph shown in front of a notification row.
func iconFor(g notify.Group) string {
	switch g {
	case notify.GroupOrder:
		return "▪"
	case notify.GroupReturn:
		return "↺"
	case notify.GroupPayment:
		return "$"
	default:
		return "•"
	}
}

// timeAgo renders a compact relative timestamp for list rows.
func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2 Jan 2006")
	}
}

// formatAmount renders a currency amount the way the admin console does.
func formatAmount(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}
