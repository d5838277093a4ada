package forward

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/storefront-labs/orderpulse/internal/notify"
)

// SMTPConfig holds connection parameters for the SMTP provider.
type SMTPConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	FromAddr   string `yaml:"from_address"`
	ToAddrs    string `yaml:"to_addresses"`
	Encryption string `yaml:"encryption"` // "none", "starttls", "ssl_tls"
}

// CategoryPrefs selects which notification groups are forwarded.
type CategoryPrefs struct {
	Orders   *bool `yaml:"orders"`
	Returns  *bool `yaml:"returns"`
	Payments *bool `yaml:"payments"`
	Generic  *bool `yaml:"generic"`
}

// enabled treats an absent preference as on; only an explicit false disables.
func enabled(p *bool) bool {
	return p == nil || *p
}

// Settings is the persisted forwarding configuration.
type Settings struct {
	Enabled    bool          `yaml:"enabled"`
	Categories CategoryPrefs `yaml:"categories"`
	SMTP       SMTPConfig    `yaml:"smtp"`
}

// ForGroup reports whether notifications of the given group are forwarded.
func (s *Settings) ForGroup(g notify.Group) bool {
	switch g {
	case notify.GroupOrder:
		return enabled(s.Categories.Orders)
	case notify.GroupReturn:
		return enabled(s.Categories.Returns)
	case notify.GroupPayment:
		return enabled(s.Categories.Payments)
	default:
		return enabled(s.Categories.Generic)
	}
}

// LoadSettings reads the forwarding settings YAML file. A missing file is
// not an error: forwarding is simply disabled.
func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from admin-configured data dir
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("reading forwarding settings %q: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing forwarding settings %q: %w", path, err)
	}
	return &s, nil
}
