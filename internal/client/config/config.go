// Package config loads the terminal client settings from
// ~/.config/gita/config.toml, overlaid by GITA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gitagpt/gitagpt/internal/client/api"
	"github.com/gitagpt/gitagpt/internal/client/conversation"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// Config is the client configuration.
type Config struct {
	APIURL    string        `toml:"api_url"`
	Token     string        `toml:"token"`
	Mode      chat.Mode     `toml:"mode"`
	Timeout   time.Duration `toml:"timeout"`
	WebSocket bool          `toml:"websocket"`
	LogLevel  string        `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		APIURL:   api.DefaultBaseURL,
		Mode:     chat.DefaultMode,
		Timeout:  conversation.DefaultTimeout,
		LogLevel: "warn",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/gita/config.toml, usually
// ~/.config/gita/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("could not determine config directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "gita", "config.toml"), nil
}

// Load reads path (DefaultPath when empty), applies env overrides and
// validates. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies GITA_API_URL, GITA_TOKEN, GITA_MODE,
// GITA_TIMEOUT, GITA_WEBSOCKET and GITA_LOG_LEVEL.
func (c *Config) ApplyEnvOverrides() error {
	if v := strings.TrimSpace(os.Getenv("GITA_API_URL")); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GITA_TOKEN")); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("GITA_MODE")); v != "" {
		c.Mode = chat.Mode(v)
	}
	if v := strings.TrimSpace(os.Getenv("GITA_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GITA_TIMEOUT value %q: %w", v, err)
		}
		c.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv("GITA_WEBSOCKET")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GITA_WEBSOCKET value %q: %w", v, err)
		}
		c.WebSocket = b
	}
	if v := strings.TrimSpace(os.Getenv("GITA_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate normalizes the mode and checks the remaining fields.
func (c *Config) Validate() error {
	mode, err := chat.ParseMode(string(c.Mode))
	if err != nil {
		return err
	}
	c.Mode = mode

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must start with http:// or https://, got %q", c.APIURL)
	}
	return nil
}

// Write saves cfg to path as TOML, creating the directory. The file may
// hold a token so it is written 0600.
func Write(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
