// Package i18n loads locale message tables and negotiates the language for a
// render. Locale files are flat YAML maps of message key to translated text,
// named after their language tag under the locales directory (en.yaml,
// de.yaml, pt-BR.yaml).
package i18n

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Bundle holds the message tables for every loaded locale and a matcher for
// language negotiation. Bundles are immutable after Load and safe for
// concurrent use.
type Bundle struct {
	defaultTag language.Tag
	tags       []language.Tag
	matcher    language.Matcher
	messages   map[language.Tag]map[string]string
	logger     *slog.Logger
}

// Load reads every locale file under dir. A missing directory produces an
// empty bundle that translates everything to itself; a malformed locale file
// is an error. Files whose name is not a valid language tag are skipped with
// a warning. If logger is nil, a discard logger is used.
func Load(dir, defaultLanguage string, logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	defaultTag, err := language.Parse(defaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLanguage, err)
	}

	b := &Bundle{
		defaultTag: defaultTag,
		messages:   make(map[language.Tag]map[string]string),
		logger:     logger,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("locales directory not found", slog.String("dir", dir))
			b.finish()
			return b, nil
		}
		return nil, fmt.Errorf("failed to read locales directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ext)
		tag, err := language.Parse(name)
		if err != nil {
			logger.Warn("skipping locale file with invalid language tag",
				slog.String("file", entry.Name()))
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", path, err)
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("malformed locale file %s: %w", path, err)
		}

		b.messages[tag] = table
		logger.Debug("loaded locale",
			slog.String("tag", tag.String()),
			slog.Int("messages", len(table)))
	}

	b.finish()
	return b, nil
}

// finish builds the matcher with the default tag first so unmatched
// preferences fall back to it.
func (b *Bundle) finish() {
	tags := []language.Tag{b.defaultTag}
	for tag := range b.messages {
		if tag != b.defaultTag {
			tags = append(tags, tag)
		}
	}
	rest := tags[1:]
	sort.Slice(rest, func(i, j int) bool {
		return rest[i].String() < rest[j].String()
	})
	b.tags = tags
	b.matcher = language.NewMatcher(tags)
}

// Languages returns the loaded language tags, default first.
func (b *Bundle) Languages() []string {
	out := make([]string, len(b.tags))
	for i, t := range b.tags {
		out[i] = t.String()
	}
	return out
}

// Translator negotiates the best locale for the given preferences and
// returns a translator over its table. Preferences are Accept-Language
// style strings; with none, or none that match, the default language is
// used.
func (b *Bundle) Translator(prefs ...string) *Translator {
	tag := b.defaultTag
	if len(prefs) > 0 {
		_, index := language.MatchStrings(b.matcher, prefs...)
		tag = b.tags[index]
	}
	return &Translator{tag: tag, table: b.messages[tag]}
}

// Translator resolves message keys and literal texts against one locale
// table. It satisfies the template engine's Translator contract.
type Translator struct {
	tag   language.Tag
	table map[string]string
}

// Tag returns the negotiated language tag.
func (t *Translator) Tag() string { return t.tag.String() }

// Text translates a literal text, returning it unchanged when the table has
// no entry for it.
func (t *Translator) Text(s string) string {
	if msg, ok := t.table[s]; ok {
		return msg
	}
	return s
}

// Key translates a message key, returning the key itself when the table has
// no entry for it.
func (t *Translator) Key(k string) string {
	if msg, ok := t.table[k]; ok {
		return msg
	}
	return k
}
