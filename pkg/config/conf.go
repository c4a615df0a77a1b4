package config

import "github.com/veranda-web/veranda/pkg/value"

// ConfValue exposes the configuration to templates as the CONF namespace.
// The database DSN is left out; credentials do not belong in render data.
func (c *Config) ConfValue() value.Value {
	return value.Object(map[string]value.Value{
		"name":             value.String(c.Name),
		"version":          value.String(c.Version),
		"default_root":     value.String(c.DefaultRoot),
		"views_dir":        value.String(c.ViewsDir),
		"layouts_dir":      value.String(c.LayoutsDir),
		"locales_dir":      value.String(c.LocalesDir),
		"default_language": value.String(c.DefaultLanguage),
		"hot_reload":       value.Bool(c.HotReload),
		"strict":           value.Bool(c.Strict),
		"database": value.Object(map[string]value.Value{
			"backend": value.String(c.Database.Backend),
		}),
	})
}

// StringMap exposes the scalar fields as the legacy string config map
// consumed through the config template namespace.
func (c *Config) StringMap() map[string]string {
	boolStr := func(b bool) string {
		if b {
			return "true"
		}
		return "false"
	}
	return map[string]string{
		"name":             c.Name,
		"version":          c.Version,
		"default_root":     c.DefaultRoot,
		"views_dir":        c.ViewsDir,
		"layouts_dir":      c.LayoutsDir,
		"locales_dir":      c.LocalesDir,
		"default_language": c.DefaultLanguage,
		"hot_reload":       boolStr(c.HotReload),
		"strict":           boolStr(c.Strict),
	}
}
