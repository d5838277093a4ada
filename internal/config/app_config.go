package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// BackendURL is the base URL of the commerce admin REST API.
	BackendURL string `envconfig:"ORDERPULSE_BACKEND_URL" default:"http://localhost:5000"`

	// PushURL is the WebSocket endpoint of the order-notification push channel.
	// When empty it is derived from BackendURL (http → ws) with the /ws/notifications path.
	PushURL string `envconfig:"ORDERPULSE_PUSH_URL"`

	// AdminToken is the bearer token for the admin session. Required by the
	// watch and inbox commands; validated there, not here, so that update
	// and version work without a session.
	AdminToken string `envconfig:"ORDERPULSE_ADMIN_TOKEN"`

	// AdminID is attached to log lines for correlation. Optional.
	AdminID string `envconfig:"ORDERPULSE_ADMIN_ID"`

	// Port is the local status/metrics HTTP server port. Defaults to 8991.
	Port int `envconfig:"PORT" default:"8991"`

	// DataDir is the root data directory. Defaults to ~/.orderpulse.
	DataDir string `envconfig:"ORDERPULSE_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// DesktopAlerts toggles best-effort desktop notifications and the alert
	// sound raised when a push event arrives.
	DesktopAlerts bool `envconfig:"ORDERPULSE_DESKTOP_ALERTS" default:"true"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.orderpulse if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".orderpulse")
	}
	if c.PushURL == "" {
		c.PushURL = derivePushURL(c.BackendURL)
	}
	return &c, nil
}

// derivePushURL converts an http(s) base URL into the matching ws(s)
// notification endpoint.
func derivePushURL(backendURL string) string {
	u := strings.TrimRight(backendURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws/notifications"
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (~/.orderpulse/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ForwardingFile returns the path to the email-forwarding settings YAML file.
func (c *AppConfig) ForwardingFile() string {
	return filepath.Join(c.DataDir, "forwarding.yaml")
}

// ArchiveFile returns the path to the local notification archive database.
func (c *AppConfig) ArchiveFile() string {
	return filepath.Join(c.DataDir, "orderpulse.db")
}
