package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/clipbridge/internal/clipboard"
	"github.com/danmuck/clipbridge/internal/favorites"
	"github.com/danmuck/clipbridge/internal/protocol/session"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultName    = "clipbridge"
	DefaultNetwork = "unix"
	DefaultTCPAddr = "127.0.0.1:7340"
)

// HostConfig is the clipbridged daemon configuration.
type HostConfig struct {
	Name        string         `toml:"name"`
	Network     string         `toml:"network"`
	Address     string         `toml:"address"`
	HTTPAddr    string         `toml:"http_addr"`
	CorsOrigins []string       `toml:"cors_origins"`
	AuthToken   string         `toml:"auth_token"`
	Clipboard   string         `toml:"clipboard"`
	CopyCmd     []string       `toml:"copy_command"`
	PasteCmd    []string       `toml:"paste_command"`
	DataDir     string         `toml:"data_dir"`
	Favorites   string         `toml:"favorites"`
	Timeouts    TimeoutsConfig `toml:"timeouts"`
}

// TimeoutsConfig holds Go duration strings, e.g. "10s".
type TimeoutsConfig struct {
	Read  string `toml:"read"`
	Write string `toml:"write"`
	Call  string `toml:"call"`
	Idle  string `toml:"idle"`
}

func LoadHostConfig(path string) (HostConfig, error) {
	var cfg HostConfig
	if err := loadToml(path, &cfg); err != nil {
		return HostConfig{}, err
	}
	cfg = WithHostDefaults(cfg)
	if err := ValidateHostConfig(cfg); err != nil {
		return HostConfig{}, err
	}
	return cfg, nil
}

// WithHostDefaults fills every blank field with its default.
func WithHostDefaults(cfg HostConfig) HostConfig {
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = DefaultName
	}
	if strings.TrimSpace(cfg.Network) == "" {
		cfg.Network = DefaultNetwork
	}
	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir()
	}
	if strings.TrimSpace(cfg.Address) == "" {
		if cfg.Network == "unix" {
			cfg.Address = filepath.Join(cfg.DataDir, "clipbridge.sock")
		} else {
			cfg.Address = DefaultTCPAddr
		}
	}
	if strings.TrimSpace(cfg.Clipboard) == "" {
		cfg.Clipboard = clipboard.BackendSystem
	}
	cfg.Clipboard = strings.ToLower(strings.TrimSpace(cfg.Clipboard))
	if strings.TrimSpace(cfg.Favorites) == "" {
		cfg.Favorites = filepath.Join(cfg.DataDir, favorites.DefaultFile)
	}
	return cfg
}

// DefaultDataDir is the per-user directory for the socket and favorites store.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, DefaultName)
	}
	return filepath.Join(os.TempDir(), DefaultName)
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateHostConfig(cfg HostConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("host config missing name")
	}
	switch cfg.Network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("host config network must be unix or tcp, got %q", cfg.Network)
	}
	if strings.TrimSpace(cfg.Address) == "" {
		return fmt.Errorf("host config missing address")
	}
	if cfg.Network == "tcp" && strings.HasPrefix(strings.TrimSpace(cfg.Address), ":") {
		return fmt.Errorf("host config tcp address must name a host, got %q", cfg.Address)
	}
	switch cfg.Clipboard {
	case clipboard.BackendSystem, clipboard.BackendMemory:
	case clipboard.BackendCommand:
		if len(cfg.CopyCmd) == 0 {
			return fmt.Errorf("host config clipboard %q requires copy_command", cfg.Clipboard)
		}
	default:
		return fmt.Errorf("host config clipboard must be %q, %q or %q, got %q",
			clipboard.BackendSystem, clipboard.BackendMemory, clipboard.BackendCommand, cfg.Clipboard)
	}
	if _, err := cfg.Session(); err != nil {
		return err
	}
	return nil
}

// ClipboardOptions returns the backend selection for clipboard.Open.
func (c HostConfig) ClipboardOptions() clipboard.Options {
	return clipboard.Options{
		Backend:      c.Clipboard,
		CopyCommand:  c.CopyCmd,
		PasteCommand: c.PasteCmd,
	}
}

// Session converts the timeouts section into a session config.
func (c HostConfig) Session() (session.Config, error) {
	var out session.Config
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeouts.read", c.Timeouts.Read, &out.ReadTimeout},
		{"timeouts.write", c.Timeouts.Write, &out.WriteTimeout},
		{"timeouts.call", c.Timeouts.Call, &out.CallTimeout},
		{"timeouts.idle", c.Timeouts.Idle, &out.IdleTimeout},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return session.Config{}, fmt.Errorf("parse %s: %w", f.name, err)
		}
		if d <= 0 {
			return session.Config{}, fmt.Errorf("%s must be positive", f.name)
		}
		*f.dst = d
	}
	return out.WithDefaults(), nil
}
