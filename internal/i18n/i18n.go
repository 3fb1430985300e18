// Package i18n serves reply texts from YAML catalogs keyed by dotted paths.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

const DefaultLanguage = "pt"

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	// Tf formats the resolved string with fmt verbs.
	Tf(key string, args ...any) string
	Lang() string
}

// Manager stores all available translations.
type Manager struct {
	translations catalog
	defaultLang  string
}

// Load loads the catalogs compiled into the binary.
func Load(defaultLang string) (*Manager, error) {
	return LoadFS(embedded, "locales", defaultLang)
}

// LoadFS loads translations from the YAML files found in dir of fsys.
func LoadFS(fsys fs.FS, dir, defaultLang string) (*Manager, error) {
	messages, err := parseDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	if defaultLang == "" {
		defaultLang = DefaultLanguage
	}

	if _, ok := messages[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{translations: messages, defaultLang: defaultLang}, nil
}

// MustLoad is Load for the embedded catalogs, which are known to parse.
func MustLoad(defaultLang string) *Manager {
	m, err := Load(defaultLang)
	if err != nil {
		panic(err)
	}
	return m
}

// Translator returns a translator for the requested language.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	norm := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(norm, "-_"); i > 0 {
		norm = norm[:i]
	}
	if norm == "" || m.translations[norm] == nil {
		norm = m.defaultLang
	}

	return translator{
		lang:         norm,
		fallback:     m.defaultLang,
		translations: m.translations,
	}
}

// Languages returns all loaded languages.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	languages := make([]string, 0, len(m.translations))
	for lang := range m.translations {
		languages = append(languages, lang)
	}
	return languages
}

type translator struct {
	lang         string
	fallback     string
	translations catalog
}

func (t translator) Lang() string {
	return t.lang
}

func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	if value := t.lookup(t.lang, key); value != "" {
		return value
	}

	if value := t.lookup(t.fallback, key); value != "" {
		return value
	}

	return key
}

func (t translator) Tf(key string, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}

func (t translator) lookup(lang, key string) string {
	if lang == "" || t.translations == nil {
		return ""
	}

	return t.translations[lang][key]
}

// catalog maps language to flattened key to message.
type catalog map[string]map[string]string

func (c catalog) merge(other catalog) {
	for lang, messages := range other {
		dst, ok := c[lang]
		if !ok {
			dst = make(map[string]string, len(messages))
			c[lang] = dst
		}
		for k, v := range messages {
			dst[k] = v
		}
	}
}

func parseDir(fsys fs.FS, dir string) (catalog, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.y*ml"))
	if err != nil {
		return nil, fmt.Errorf("i18n: glob %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}

	out := make(catalog)
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", name, err)
		}

		parsed, err := parseCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", name, err)
		}
		out.merge(parsed)
	}

	return out, nil
}

// parseCatalog reads a document whose top-level keys are languages and whose
// nested mappings end in scalar messages.
func parseCatalog(data []byte) (catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	out := make(catalog)
	if len(doc.Content) == 0 {
		return out, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of languages, got line %d", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		lang := strings.ToLower(strings.TrimSpace(root.Content[i].Value))
		body := root.Content[i+1]
		if lang == "" || body.Kind != yaml.MappingNode {
			continue
		}

		messages := make(map[string]string)
		walk("", body, messages)
		if len(messages) > 0 {
			out[lang] = messages
		}
	}

	return out, nil
}

func walk(prefix string, node *yaml.Node, out map[string]string) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		switch value := node.Content[i+1]; value.Kind {
		case yaml.ScalarNode:
			out[key] = value.Value
		case yaml.MappingNode:
			walk(key, value, out)
		}
	}
}
