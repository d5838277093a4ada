package forward

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/storefront-labs/orderpulse/internal/notify"
)

const sendTimeout = 30 * time.Second

// SettingsLoader is a function that loads the current forwarding settings.
// It is called on every event so that configuration changes take effect
// without requiring a restart.
type SettingsLoader func() (*Settings, error)

// Handler receives inbound notifications from the transport and forwards
// them according to the current settings.
type Handler struct {
	settingsLoader SettingsLoader
	logger         *slog.Logger

	// newProvider builds the delivery provider for the loaded settings;
	// replaced in tests.
	newProvider func(SMTPConfig) Provider
}

// NewHandler creates a forwarding Handler.
func NewHandler(loader SettingsLoader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		settingsLoader: loader,
		logger:         logger,
		newProvider:    func(c SMTPConfig) Provider { return NewSMTPProvider(c) },
	}
}

// Handle forwards one notification: loads settings, applies the category
// preferences, builds the message, and sends it. Delivery failure is logged
// and otherwise swallowed.
func (h *Handler) Handle(n notify.Notification) {
	settings, err := h.settingsLoader()
	if err != nil {
		h.logger.Warn("forward: failed to load settings", slog.String("error", err.Error()))
		return
	}
	if !settings.Enabled {
		return
	}
	if !settings.ForGroup(n.Category.Group()) {
		return
	}

	provider := h.newProvider(settings.SMTP)
	msg := Message{
		Subject: SubjectPrefix + n.Title,
		Body:    buildBody(n),
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := provider.Send(ctx, msg); err != nil {
		h.logger.Warn("forward: delivery failed",
			slog.String("provider", provider.Name()),
			slog.String("notification_id", n.ID),
			slog.String("error", err.Error()))
	}
}

// buildBody flattens the notification into a readable plain-text body.
func buildBody(n notify.Notification) string {
	var parts []string
	if n.Message != "" {
		parts = append(parts, n.Message)
	}
	if n.Customer != "" {
		parts = append(parts, "Customer: "+n.Customer)
	}
	if n.RelatedOrderID != "" {
		parts = append(parts, "Order: #"+n.RelatedOrderID)
	}
	if n.Amount > 0 {
		parts = append(parts, fmt.Sprintf("Amount: ₹%.2f", n.Amount))
	}
	if n.Return != nil && n.Return.Reason != "" {
		parts = append(parts, "Return reason: "+n.Return.Reason)
	}
	if n.Payment != nil && n.Payment.FailureReason != "" {
		parts = append(parts, "Failure: "+n.Payment.FailureReason)
	}
	parts = append(parts, "Received: "+n.CreatedAt.Format(time.RFC1123))
	return strings.Join(parts, "\n")
}
