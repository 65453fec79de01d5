package locale

import (
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/henriquecf/i18n-parser/internal/parser"
	"github.com/henriquecf/i18n-parser/internal/textutil"
)

// Mismatch is a record that does not localize back to its text.
type Mismatch struct {
	ID   string
	Want string
	Got  string
	Err  error
}

func newBundle(locale string) *i18n.Bundle {
	bundle := i18n.NewBundle(language.Make(locale))
	bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return bundle
}

// Load parses a locale document the way a go-i18n runtime would and returns
// its message count and language.
func Load(path string) (int, language.Tag, error) {
	mf, err := newBundle("en").LoadMessageFile(path)
	if err != nil {
		return 0, language.Und, fmt.Errorf("load %s: %w", path, err)
	}
	return len(mf.Messages), mf.Tag, nil
}

// Verify loads the document written for a template and checks every record
// localizes to its text under locale.scope.key.
func Verify(path, locale string, scope []string, records []parser.Translatable) ([]Mismatch, error) {
	bundle := newBundle(locale)
	if _, err := bundle.LoadMessageFile(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	localizer := i18n.NewLocalizer(bundle, locale)

	prefix := strings.Join(append([]string{locale}, scope...), ".")

	var mismatches []Mismatch
	for _, r := range records {
		id := prefix + "." + r.Key
		want := textutil.UnescapeQuotes(r.Text)

		got, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
		if err != nil || got != want {
			mismatches = append(mismatches, Mismatch{ID: id, Want: want, Got: got, Err: err})
		}
	}
	return mismatches, nil
}
