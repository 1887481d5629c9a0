package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultTimeout = 5 * time.Second

// Config carries every setting the reader needs. It is built once at start
// and passed explicitly to the components that use it.
type Config struct {
	DatabasePath string
	Timeout      time.Duration
	LogFile      string
	Verbose      bool
	PDFFont      string
}

// fileConfig mirrors config.yaml.
type fileConfig struct {
	Database struct {
		Path string `yaml:"path,omitempty"`
	} `yaml:"database"`
	HTTP struct {
		Timeout int `yaml:"timeout,omitempty"`
	} `yaml:"http"`
	Log struct {
		File    string `yaml:"file,omitempty"`
		Verbose bool   `yaml:"verbose,omitempty"`
	} `yaml:"log"`
	PDF struct {
		Font string `yaml:"font,omitempty"`
	} `yaml:"pdf"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		DatabasePath: DefaultDBPath(),
		Timeout:      defaultTimeout,
	}
}

// DefaultDBPath returns the cache location used when none is configured.
func DefaultDBPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "rss-reader", "rss_cache.db")
	}
	return "rss_cache.db"
}

// DefaultPath returns ~/.config/rss-reader/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rss-reader", "config.yaml"), nil
}

// Load reads the config file at path on top of the defaults. An empty path
// means DefaultPath; a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if p := strings.TrimSpace(fc.Database.Path); p != "" {
		cfg.DatabasePath = ExpandPath(p)
	}
	if fc.HTTP.Timeout > 0 {
		cfg.Timeout = time.Duration(fc.HTTP.Timeout) * time.Second
	}
	if f := strings.TrimSpace(fc.Log.File); f != "" {
		cfg.LogFile = ExpandPath(f)
	}
	cfg.Verbose = fc.Log.Verbose
	if f := strings.TrimSpace(fc.PDF.Font); f != "" {
		cfg.PDFFont = ExpandPath(f)
	}
	return cfg, nil
}

// ExpandPath expands leading ~ and environment variables in a filesystem path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	// Expand environment variables like $HOME
	p = os.ExpandEnv(p)
	// Expand leading ~
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
