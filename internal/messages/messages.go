// Package messages renders rule texts from locale bundles. Bundles are YAML
// maps from message key to a fmt template.
package messages

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultLocale = "en"

//go:embed bundles/*.yaml
var bundleFS embed.FS

// Formatter renders a message key. Unknown keys render as the key itself.
type Formatter interface {
	Format(key string, args ...any) string
}

// Bundle resolves keys in one locale, falling back to DefaultLocale.
type Bundle struct {
	locale   string
	primary  map[string]string
	fallback map[string]string
}

// Load returns the bundle for locale ("de", "de_DE" and "de-DE" all pick
// the "de" bundle). An unknown locale yields the default bundle.
func Load(locale string) (*Bundle, error) {
	def, err := readBundle(DefaultLocale)
	if err != nil {
		return nil, err
	}
	b := &Bundle{locale: DefaultLocale, primary: def, fallback: def}
	lang := normalize(locale)
	if lang == "" || lang == DefaultLocale {
		return b, nil
	}
	m, err := readBundle(lang)
	if err != nil {
		return b, nil
	}
	b.locale, b.primary = lang, m
	return b, nil
}

// MustLoad is Load for embedded bundles known to be well formed.
func MustLoad(locale string) *Bundle {
	b, err := Load(locale)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bundle) Locale() string { return b.locale }

func (b *Bundle) Format(key string, args ...any) string {
	tpl, ok := b.primary[key]
	if !ok {
		tpl, ok = b.fallback[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 || !strings.Contains(tpl, "%") {
		return tpl
	}
	return fmt.Sprintf(tpl, args...)
}

// Locales lists the embedded bundles.
func Locales() []string {
	entries, _ := fs.ReadDir(bundleFS, "bundles")
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(out)
	return out
}

func readBundle(lang string) (map[string]string, error) {
	b, err := bundleFS.ReadFile("bundles/" + lang + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", lang, err)
	}
	m := map[string]string{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", lang, err)
	}
	return m, nil
}

func normalize(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(l, "_-."); i >= 0 {
		l = l[:i]
	}
	return l
}

// Overlay layers extra templates over base. Keys found in extra win.
func Overlay(base Formatter, extra map[string]string) Formatter {
	if len(extra) == 0 {
		return base
	}
	return overlay{base: base, extra: extra}
}

type overlay struct {
	base  Formatter
	extra map[string]string
}

func (o overlay) Format(key string, args ...any) string {
	tpl, ok := o.extra[key]
	if !ok {
		return o.base.Format(key, args...)
	}
	if len(args) == 0 || !strings.Contains(tpl, "%") {
		return tpl
	}
	return fmt.Sprintf(tpl, args...)
}
