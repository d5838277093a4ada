package ui

import (
	"fmt"
	"strings"

	"github.com/storefront-labs/orderpulse/internal/notify"
)

// Tab is one of the notification center's category filter tabs.
type Tab string

const (
	TabAll      Tab = "all"
	TabOrders   Tab = "orders"
	TabReturns  Tab = "returns"
	TabPayments Tab = "payments"
)

var tabOrder = []Tab{TabAll, TabOrders, TabReturns, TabPayments}

// group returns the notification group a tab admits, or "" for TabAll.
func (t Tab) group() notify.Group {
	switch t {
	case TabOrders:
		return notify.GroupOrder
	case TabReturns:
		return notify.GroupReturn
	case TabPayments:
		return notify.GroupPayment
	default:
		return ""
	}
}

// ParseTab maps a user-supplied tab name to a Tab, defaulting to TabAll.
func ParseTab(s string) Tab {
	switch Tab(strings.ToLower(s)) {
	case TabOrders, "order":
		return TabOrders
	case TabReturns, "return":
		return TabReturns
	case TabPayments, "payment":
		return TabPayments
	default:
		return TabAll
	}
}

// Center is the full browsing surface: category tabs composed with an
// unread-only toggle, and a per-category detail view. The detail view is
// dismissed only by the explicit close action.
type Center struct {
	store      *notify.Store
	tab        Tab
	unreadOnly bool
}

// NewCenter creates a Center on the All tab with the unread filter off.
func NewCenter(store *notify.Store) *Center {
	return &Center{store: store, tab: TabAll}
}

// SetTab selects the active category tab.
func (c *Center) SetTab(t Tab) { c.tab = t }

// SetUnreadOnly toggles the unread-only view.
func (c *Center) SetUnreadOnly(on bool) { c.unreadOnly = on }

// Visible returns the notifications passing both filters (tab AND unread),
// newest first.
func (c *Center) Visible() []notify.Notification {
	var out []notify.Notification
	want := c.tab.group()
	for _, n := range c.store.Notifications() {
		if want != "" && n.Category.Group() != want {
			continue
		}
		if c.unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Open marks the notification read (if unread) and returns its detail view.
// The second return is false when the id is unknown.
func (c *Center) Open(id string) (string, bool) {
	for _, n := range c.store.Notifications() {
		if n.ID != id {
			continue
		}
		c.store.MarkRead(id)
		n.Read = true
		return Detail(n), true
	}
	return "", false
}

// MarkAllRead marks every notification read.
func (c *Center) MarkAllRead() { c.store.MarkAllRead() }

// Render renders the tab bar and the filtered rows.
func (c *Center) Render() string {
	var sb strings.Builder

	var tabs []string
	for _, t := range tabOrder {
		label := tabLabel(t)
		if t == c.tab {
			label = tabActiveStyle.Render(label)
		} else {
			label = dimStyle.Render(label)
		}
		tabs = append(tabs, label)
	}
	sb.WriteString(strings.Join(tabs, "  "))
	if c.unreadOnly {
		sb.WriteString("  " + unreadStyle.Render("[unread only]"))
	}
	sb.WriteString("\n\n")

	rows := c.Visible()
	if len(rows) == 0 {
		sb.WriteString(dimStyle.Render("Nothing here"))
		return sb.String()
	}
	for _, n := range rows {
		title := n.Title
		if !n.Read {
			title = unreadStyle.Render(title)
		}
		sb.WriteString(fmt.Sprintf("%s %s  %s  %s\n",
			iconFor(n.Category.Group()),
			title,
			dimStyle.Render(n.ID),
			dimStyle.Render(timeAgo(n.CreatedAt)),
		))
	}
	return sb.String()
}

func tabLabel(t Tab) string {
	switch t {
	case TabOrders:
		return "Orders"
	case TabReturns:
		return "Returns"
	case TabPayments:
		return "Payments"
	default:
		return "All"
	}
}

// Detail renders the full view for one notification. The common header is
// always present; the body section depends on the category's group, and
// generic notifications get no body at all.
func Detail(n notify.Notification) string {
	var sb strings.Builder

	// Common header: icon, title, timestamp, status badge, customer block.
	sb.WriteString(iconFor(n.Category.Group()) + " " + titleStyle.Render(n.Title) + "\n")
	sb.WriteString(dimStyle.Render(n.CreatedAt.Format("2 Jan 2006 15:04")))
	if n.Status != "" {
		sb.WriteString("  " + statusBadgeStyle.Render(strings.ToUpper(n.Status)))
	}
	sb.WriteString("\n")
	if n.Message != "" {
		sb.WriteString(n.Message + "\n")
	}
	if n.Customer != "" {
		sb.WriteString("\n" + sectionStyle.Render("Customer") + "\n")
		sb.WriteString(n.Customer + "\n")
		if n.Email != "" {
			sb.WriteString(dimStyle.Render(n.Email) + "\n")
		}
		if n.Phone != "" {
			sb.WriteString(dimStyle.Render(n.Phone) + "\n")
		}
	}
	if n.RelatedOrderID != "" {
		sb.WriteString(dimStyle.Render("Order #"+n.RelatedOrderID) + "\n")
	}

	switch {
	case n.Order != nil:
		sb.WriteString("\n" + sectionStyle.Render("Order Summary") + "\n")
		for _, it := range n.Order.Items {
			sb.WriteString(fmt.Sprintf("%d × %s  %s\n", it.Qty, it.Name, formatAmount(it.LineTotal())))
		}
		total := n.Amount
		if total == 0 {
			total = n.Order.Subtotal()
		}
		sb.WriteString(titleStyle.Render("Total "+formatAmount(total)) + "\n")
		if n.Order.Address != "" {
			sb.WriteString("\n" + sectionStyle.Render("Shipping Address") + "\n")
			sb.WriteString(n.Order.Address + "\n")
		}
	case n.Return != nil:
		sb.WriteString("\n" + sectionStyle.Render("Return Request") + "\n")
		sb.WriteString("Reason: " + n.Return.Reason + "\n")
		if n.Return.Comments != "" {
			sb.WriteString("“" + n.Return.Comments + "”\n")
		}
		sb.WriteString("Action requested: " + n.Return.RequestedAction + "\n")
	case n.Payment != nil:
		sb.WriteString("\n" + sectionStyle.Render("Transaction Details") + "\n")
		sb.WriteString("Transaction: " + n.Payment.TransactionID + "\n")
		sb.WriteString("Gateway: " + n.Payment.Gateway + "\n")
		sb.WriteString("Method: " + n.Payment.Method + "\n")
		if n.Payment.FailureReason != "" {
			sb.WriteString(errorBlockStyle.Render("Failed: "+n.Payment.FailureReason) + "\n")
		}
	}

	sb.WriteString("\n" + dimStyle.Render("[x] close"))
	return sb.String()
}
