package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Alerter raises a best-effort local alert for one inbound notification.
// Implementations must never block event delivery on alert failure.
type Alerter interface {
	Alert(n Notification)
}

// DesktopAlerter shows a desktop notification and plays the system alert
// sound. Both are best-effort: a denied permission or blocked audio device
// is logged at debug level and otherwise ignored.
type DesktopAlerter struct {
	logger *slog.Logger
}

// NewDesktopAlerter creates a DesktopAlerter.
func NewDesktopAlerter(logger *slog.Logger) *DesktopAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DesktopAlerter{logger: logger}
}

// Alert implements Alerter.
func (a *DesktopAlerter) Alert(n Notification) {
	if err := beeep.Notify(n.Title, n.Message, ""); err != nil {
		a.logger.Debug("desktop notification failed", slog.String("error", err.Error()))
	}
	if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		a.logger.Debug("alert sound failed", slog.String("error", err.Error()))
	}
}
