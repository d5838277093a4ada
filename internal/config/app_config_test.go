package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &AppConfig{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, c.SlogLevel())
		})
	}
}

func TestAppConfig_Paths(t *testing.T) {
	c := &AppConfig{DataDir: "/data"}

	assert.Equal(t, "/data/logs", c.LogDir())
	assert.Equal(t, "/data/forwarding.yaml", c.ForwardingFile())
}

func TestLoad(t *testing.T) {
	t.Setenv("ORDERPULSE_BACKEND_URL", "https://admin.example.com/api")
	t.Setenv("ORDERPULSE_PUSH_URL", "")
	t.Setenv("ORDERPULSE_DATA_DIR", "/tmp/test-orderpulse")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/test-orderpulse", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DesktopAlerts)
	// PushURL is derived from the backend URL when unset.
	assert.Equal(t, "wss://admin.example.com/api/ws/notifications", cfg.PushURL)
}

func TestDerivePushURL(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{"http://localhost:5000", "ws://localhost:5000/ws/notifications"},
		{"http://localhost:5000/", "ws://localhost:5000/ws/notifications"},
		{"https://shop.example.com", "wss://shop.example.com/ws/notifications"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, derivePushURL(tt.backend))
	}
}
