// Package i18n holds the localized UI strings of the shop dialog.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

const (
	localesDir  = "locales"
	defaultLang = "en"
)

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	// Tf formats the resolved string with args.
	Tf(key string, args ...any) string
	Lang() string
}

// Manager stores all available translations.
type Manager struct {
	catalogs    map[string]messages
	defaultLang string
}

// Load loads the translations compiled into the binary.
func Load(lang string) (*Manager, error) {
	return LoadFS(locales, localesDir, lang)
}

// LoadFromDir loads translations from a directory on disk instead of the embedded set.
func LoadFromDir(dir, lang string) (*Manager, error) {
	return LoadFS(os.DirFS(dir), ".", lang)
}

// LoadFS loads every YAML file found in dir of fsys. Each file maps language codes to
// nested message tables; files may share a language.
func LoadFS(fsys fs.FS, dir, lang string) (*Manager, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	catalogs := make(map[string]messages)
	files := 0

	for _, entry := range entries {
		ext := strings.ToLower(path.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files++

		name := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("i18n: read file %s: %w", name, err)
		}

		var file map[string]messages
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("i18n: parse file %s: %w", name, err)
		}

		for code, msgs := range file {
			code = normalize(code)
			if code == "" {
				continue
			}
			if catalogs[code] == nil {
				catalogs[code] = make(messages, len(msgs))
			}
			for key, text := range msgs {
				catalogs[code][key] = text
			}
		}
	}

	if files == 0 {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}

	lang = normalize(lang)
	if lang == "" {
		lang = defaultLang
	}
	if _, ok := catalogs[lang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", lang)
	}

	return &Manager{catalogs: catalogs, defaultLang: lang}, nil
}

// Translator returns a translator for lang, falling back to the default language for
// unknown languages and missing keys.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	code := normalize(lang)
	if _, ok := m.catalogs[code]; !ok {
		code = m.defaultLang
	}

	return translator{
		lang:     code,
		primary:  m.catalogs[code],
		fallback: m.catalogs[m.defaultLang],
	}
}

// Languages returns the loaded language codes in order.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	codes := make([]string, 0, len(m.catalogs))
	for code := range m.catalogs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Missing lists the keys of the default language that lang does not define.
func (m *Manager) Missing(lang string) []string {
	if m == nil {
		return nil
	}

	target := m.catalogs[normalize(lang)]
	var missing []string
	for key := range m.catalogs[m.defaultLang] {
		if _, ok := target[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

type translator struct {
	lang     string
	primary  messages
	fallback messages
}

func (t translator) Lang() string {
	return t.lang
}

func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	if text, ok := t.primary[key]; ok {
		return text
	}
	if text, ok := t.fallback[key]; ok {
		return text
	}
	return key
}

func (t translator) Tf(key string, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}

// messages is a flat table of dot-joined keys decoded from a nested YAML mapping.
type messages map[string]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *messages) UnmarshalYAML(node *yaml.Node) error {
	*m = make(messages)
	return m.collect("", node)
}

func (m messages) collect(prefix string, node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if key == "" {
				continue
			}
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := m.collect(key, node.Content[i+1]); err != nil {
				return err
			}
		}
		return nil
	case yaml.ScalarNode:
		if prefix == "" {
			return fmt.Errorf("line %d: message without a key", node.Line)
		}
		m[prefix] = node.Value
		return nil
	default:
		return fmt.Errorf("line %d: %s must be a string or a mapping", node.Line, prefix)
	}
}
