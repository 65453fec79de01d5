package locale

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/henriquecf/i18n-parser/internal/parser"
	"github.com/henriquecf/i18n-parser/internal/textutil"
)

// Format is a locale document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

var (
	// ErrUnknownFormat is returned for an unsupported document format.
	ErrUnknownFormat = errors.New("unknown locale format")
	// ErrPathConflict is returned when a key would replace a nested table, or
	// a table would replace a plain message.
	ErrPathConflict = errors.New("locale key conflicts with existing entry")
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatTOML, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension used for the format.
func (f Format) Ext() string {
	if f == FormatYAML {
		return "yml"
	}
	return string(f)
}

func (f Format) marshal(v any) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(v)
	case FormatTOML:
		return toml.Marshal(v)
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return nil, ErrUnknownFormat
}

func (f Format) unmarshal(data []byte, v any) error {
	switch f {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatTOML:
		return toml.Unmarshal(data, v)
	case FormatJSON:
		return json.Unmarshal(data, v)
	}
	return ErrUnknownFormat
}

// Scope returns the lookup scope of a template: its directories followed by
// its name without extensions or partial underscore.
// "users/_form.html.erb" gives ["users", "form"].
func Scope(rel string) []string {
	rel = filepath.ToSlash(rel)
	dir, file := path.Split(rel)

	name, _, _ := strings.Cut(file, ".")
	name = strings.TrimPrefix(name, "_")

	var scope []string
	for _, part := range strings.Split(dir, "/") {
		if part != "" && part != "." {
			scope = append(scope, part)
		}
	}
	return append(scope, name)
}

// Writer emits one document per locale for every processed template.
// Templates that share a scope share documents, so writes are serialized.
type Writer struct {
	mu      sync.Mutex
	dir     string
	format  Format
	locales []string
}

// NewWriter creates a Writer rooted at dir. The first locale is the default.
func NewWriter(dir string, format Format, locales []string) *Writer {
	return &Writer{dir: dir, format: format, locales: locales}
}

// Path returns where the document for a template and locale is written:
// <dir>/<template dir>/<name>.<locale>.<ext>.
func (w *Writer) Path(rel, locale string) string {
	scope := Scope(rel)
	name := scope[len(scope)-1]
	dir := filepath.Join(append([]string{w.dir}, scope[:len(scope)-1]...)...)
	return filepath.Join(dir, name+"."+locale+"."+w.format.Ext())
}

// Write merges the records of one template into its locale documents and
// returns the paths written. Each record maps locale.scope.key to its text.
func (w *Writer) Write(rel string, records []parser.Translatable) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	scope := Scope(rel)
	var written []string

	for _, loc := range w.locales {
		p := w.Path(rel, loc)

		doc, err := w.load(p)
		if err != nil {
			return written, err
		}

		for _, r := range records {
			keyPath := append(append([]string{loc}, scope...), r.Key)
			if err := setNested(doc, keyPath, textutil.UnescapeQuotes(r.Text)); err != nil {
				return written, fmt.Errorf("%s: %w", p, err)
			}
		}

		data, err := w.format.marshal(doc)
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", p, err)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return written, fmt.Errorf("create locale directory: %w", err)
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", p, err)
		}

		log.Debug().Str("path", p).Int("keys", len(records)).Msg("Wrote locale document")
		written = append(written, p)
	}

	return written, nil
}

func (w *Writer) load(p string) (map[string]any, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	doc := map[string]any{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := w.format.unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	return doc, nil
}

func setNested(doc map[string]any, keyPath []string, value string) error {
	m := doc
	for i, k := range keyPath[:len(keyPath)-1] {
		switch next := m[k].(type) {
		case nil:
			child := map[string]any{}
			m[k] = child
			m = child
		case map[string]any:
			m = next
		default:
			return fmt.Errorf("%s: %w", strings.Join(keyPath[:i+1], "."), ErrPathConflict)
		}
	}

	last := keyPath[len(keyPath)-1]
	if _, isTable := m[last].(map[string]any); isTable {
		return fmt.Errorf("%s: %w", strings.Join(keyPath, "."), ErrPathConflict)
	}
	m[last] = value
	return nil
}
