// Package config loads the framework configuration. Values are layered:
// built-in defaults first, then a veranda.yaml/veranda.yml project file when
// present, then VERANDA_-prefixed environment variables, each layer
// overriding the previous one.
//
// The loaded Config feeds the view engine (directories, strict mode, hot
// reload), the i18n bundle (locales directory, default language) and the
// query runner (database backend and DSN). ConfValue exposes it to templates
// as the CONF namespace.
package config

import (
	"fmt"

	"github.com/veranda-web/veranda/pkg/dialect"
)

// Default configuration values.
const (
	DefaultRoot       = "/"
	DefaultViewsDir   = "views"
	DefaultLayoutsDir = "layouts"
	DefaultLocalesDir = "locales"
	DefaultLanguage   = "en"
)

// DatabaseConfig holds the query-builder backend and connection string.
type DatabaseConfig struct {
	Backend string `koanf:"backend"`
	DSN     string `koanf:"dsn"`
}

// Config is the framework configuration.
type Config struct {
	Name            string         `koanf:"name"`
	Version         string         `koanf:"version"`
	DefaultRoot     string         `koanf:"default_root"`
	ViewsDir        string         `koanf:"views_dir"`
	LayoutsDir      string         `koanf:"layouts_dir"`
	LocalesDir      string         `koanf:"locales_dir"`
	DefaultLanguage string         `koanf:"default_language"`
	HotReload       bool           `koanf:"hot_reload"`
	Strict          bool           `koanf:"strict"`
	Database        DatabaseConfig `koanf:"database"`
}

// ApplyDefaults fills empty fields with the built-in defaults.
func (c *Config) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.DefaultRoot == "" {
		c.DefaultRoot = DefaultRoot
	}
	if c.ViewsDir == "" {
		c.ViewsDir = DefaultViewsDir
	}
	if c.LayoutsDir == "" {
		c.LayoutsDir = DefaultLayoutsDir
	}
	if c.LocalesDir == "" {
		c.LocalesDir = DefaultLocalesDir
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = DefaultLanguage
	}
}

// Validate checks that the configuration is usable. A database section with
// an unknown backend is rejected; an empty section is fine since the query
// layer is optional.
func (c *Config) Validate() error {
	if c.Database.Backend != "" {
		if _, err := dialect.ParseBackend(c.Database.Backend); err != nil {
			return fmt.Errorf("invalid database configuration: %w", err)
		}
	}
	return nil
}

// Backend parses the configured database backend.
func (c *Config) Backend() (dialect.Backend, error) {
	return dialect.ParseBackend(c.Database.Backend)
}
