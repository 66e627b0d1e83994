// ABOUTME: CareTrack configuration management with backend selection.
// ABOUTME: Handles settings, .env overrides, and storage/queue factory functions.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/caretrack/internal/charm"
	"github.com/harperreed/caretrack/internal/queue"
	"github.com/harperreed/caretrack/internal/storage"
	"github.com/joho/godotenv"
)

// Backends.
const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

// Defaults for durations left unset.
const (
	DefaultProbeInterval = 30 * time.Second
	DefaultRemoteTimeout = 30 * time.Second
)

// Config stores caretrack configuration.
type Config struct {
	// Backend selects the remote store: "sqlite" (default) or "charm".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for local data.
	// SQLite puts caretrack.db here; the pending queue lives in queue/.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/caretrack.
	DataDir string `json:"data_dir,omitempty"`

	// Author is the display name stamped as logged_by.
	Author string `json:"author,omitempty"`

	// Hospitals limits dashboards to the viewer's hospitals. Empty means all.
	Hospitals []string `json:"hospitals,omitempty"`

	// ProbeURL is checked to decide whether the remote store is reachable.
	ProbeURL string `json:"probe_url,omitempty"`

	// ProbeInterval and RemoteTimeout are Go duration strings, e.g. "30s".
	ProbeInterval string `json:"probe_interval,omitempty"`
	RemoteTimeout string `json:"remote_timeout,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendSQLite
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetProbeInterval parses ProbeInterval, falling back to the default.
func (c *Config) GetProbeInterval() time.Duration {
	return parseDuration(c.ProbeInterval, DefaultProbeInterval)
}

// GetRemoteTimeout parses RemoteTimeout, falling back to the default.
func (c *Config) GetRemoteTimeout() time.Duration {
	return parseDuration(c.RemoteTimeout, DefaultRemoteTimeout)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Identity returns the author name, falling back to the OS user.
func (c *Config) Identity() string {
	if c.Author != "" {
		return c.Author
	}
	if u, err := user.Current(); err == nil {
		if u.Name != "" {
			return u.Name
		}
		return u.Username
	}
	return ""
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.GetBackend() {
	case BackendSQLite, BackendCharm:
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	for name, v := range map[string]string{"probe_interval": c.ProbeInterval, "remote_timeout": c.RemoteTimeout} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage() (storage.Repository, error) {
	backend := c.GetBackend()
	dataDir := c.GetDataDir()

	switch backend {
	case BackendSQLite:
		return storage.Open(storage.PathIn(dataDir))
	case BackendCharm:
		return charm.InitClient()
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// QueueDir returns where the pending queue is persisted.
func (c *Config) QueueDir() string {
	return filepath.Join(c.GetDataDir(), "queue")
}

// OpenQueue opens the durable pending-queue storage.
func (c *Config) OpenQueue() (*queue.BadgerStorage, error) {
	return queue.OpenBadger(c.QueueDir())
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "caretrack", "config.json")
}

// Load reads config from disk, then applies .env and environment overrides.
func Load() (*Config, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg, err := loadFile(GetConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides file values from CARETRACK_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CARETRACK_AUTHOR"); v != "" {
		c.Author = v
	}
	if v := os.Getenv("CARETRACK_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("CARETRACK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("CARETRACK_PROBE_URL"); v != "" {
		c.ProbeURL = v
	}
	if v := os.Getenv("CARETRACK_HOSPITALS"); v != "" {
		c.Hospitals = nil
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				c.Hospitals = append(c.Hospitals, h)
			}
		}
	}
	if v := os.Getenv("CARETRACK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
