package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultRoot, cfg.DefaultRoot)
	assert.Equal(t, "views", cfg.ViewsDir)
	assert.Equal(t, "layouts", cfg.LayoutsDir)
	assert.Equal(t, "locales", cfg.LocalesDir)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.False(t, cfg.HotReload)
	assert.False(t, cfg.Strict)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileName, `
name: shop
version: "1.2.0"
views_dir: templates
hot_reload: true
database:
  backend: postgres
  dsn: postgres://localhost/shop
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.Name)
	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "templates", cfg.ViewsDir)
	assert.Equal(t, "layouts", cfg.LayoutsDir, "unset fields keep defaults")
	assert.True(t, cfg.HotReload)
	assert.Equal(t, "postgres", cfg.Database.Backend)
	assert.Equal(t, "postgres://localhost/shop", cfg.Database.DSN)

	backend, err := cfg.Backend()
	require.NoError(t, err)
	assert.Equal(t, "postgres", backend.String())
}

func TestLoadAlternateExtension(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileNameAlt, "name: alt\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "alt", cfg.Name)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileName, "default_language: en\nname: shop\n")

	t.Setenv("VERANDA_DEFAULT_LANGUAGE", "de")
	t.Setenv("VERANDA_STRICT", "true")
	t.Setenv("VERANDA_DATABASE__DSN", "file:test.db")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "de", cfg.DefaultLanguage, "env should override the file")
	assert.Equal(t, "shop", cfg.Name, "file values without env override survive")
	assert.True(t, cfg.Strict, "weakly typed input coerces env strings to bools")
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileName, "database:\n  backend: oracle\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileName, "views_dir: [unterminated\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, ConfigFileName, "name: app\n")
	nested := filepath.Join(root, "controllers", "admin")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Equal(t, root, FindProjectRoot(root))

	empty := t.TempDir()
	assert.Equal(t, "", FindProjectRoot(empty))
}

func TestConfValue(t *testing.T) {
	cfg := &Config{
		Name:        "shop",
		DefaultRoot: "/app",
		Database:    DatabaseConfig{Backend: "sqlite", DSN: "file:secret.db"},
	}
	cfg.ApplyDefaults()

	conf := cfg.ConfValue()
	assert.Equal(t, "/app", conf.GetPath("default_root").Str())
	assert.Equal(t, "shop", conf.GetPath("name").Str())
	assert.Equal(t, "sqlite", conf.GetPath("database.backend").Str())
	assert.True(t, conf.GetPath("database.dsn").IsNull(), "DSN must not reach templates")
}

func TestStringMap(t *testing.T) {
	cfg := &Config{Name: "shop", HotReload: true}
	cfg.ApplyDefaults()

	m := cfg.StringMap()
	assert.Equal(t, "shop", m["name"])
	assert.Equal(t, "true", m["hot_reload"])
	assert.Equal(t, "false", m["strict"])
	assert.Equal(t, "views", m["views_dir"])
}
