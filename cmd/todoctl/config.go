package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/example/todo-tracker/client"
)

const defaultServerURL = "http://localhost:8080"

// Config is the todoctl config file. The session is written back after
// login and every token refresh.
type Config struct {
	ServerURL string         `toml:"server_url"`
	Email     string         `toml:"email,omitempty"`
	Session   client.Session `toml:"session"`
}

func setDefaults(cfg *Config) {
	cfg.ServerURL = defaultServerURL
}

// defaultConfigPath is ~/.config/todoctl/config.toml or the OS equivalent.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "todoctl.toml"
	}
	return filepath.Join(dir, "todoctl", "config.toml")
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading config file %s: %w", path, err)
	}
	return cfg, nil
}

// saveConfig writes cfg to path, readable only by the user.
func saveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
