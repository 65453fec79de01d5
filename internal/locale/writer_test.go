package locale

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/henriquecf/i18n-parser/internal/parser"
)

var sampleRecords = []parser.Translatable{
	{Original: "Profile", Text: "Profile", Key: "profile", Type: parser.TypeHTML},
	{Original: `Say "hi"`, Text: `Say \"hi\"`, Key: "say_hi", Type: parser.TypeERB},
}

func TestScope(t *testing.T) {
	tests := []struct {
		rel  string
		want []string
	}{
		{rel: "users/_form.html.erb", want: []string{"users", "form"}},
		{rel: "show.html.erb", want: []string{"show"}},
		{rel: "admin/users/index.html.erb", want: []string{"admin", "users", "index"}},
		{rel: "./mailer/welcome.text.erb", want: []string{"mailer", "welcome"}},
	}
	for _, tc := range tests {
		t.Run(tc.rel, func(t *testing.T) {
			if got := Scope(tc.rel); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Scope(%q) = %v, want %v", tc.rel, got, tc.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"yaml": FormatYAML, "YML": FormatYAML, "toml": FormatTOML, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(xml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestWriter_WriteYAML(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, FormatYAML, []string{"en", "es"})

	paths, err := w.Write("users/show.html.erb", sampleRecords)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "users", "show.en.yml"),
		filepath.Join(dir, "users", "show.es.yml"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("Write() paths = %v, want %v", paths, want)
	}

	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]map[string]map[string]map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := doc["es"]["users"]["show"]["say_hi"]; got != `Say "hi"` {
		t.Errorf("es.users.show.say_hi = %q, want %q", got, `Say "hi"`)
	}

	mismatches, err := Verify(paths[0], "en", Scope("users/show.html.erb"), sampleRecords)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("Verify() mismatches = %+v", mismatches)
	}

	n, tag, err := Load(paths[0])
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n != 2 || tag.String() != "en" {
		t.Errorf("Load() = %d, %s; want 2, en", n, tag)
	}
}

func TestWriter_OtherFormatsVerify(t *testing.T) {
	for _, f := range []Format{FormatTOML, FormatJSON} {
		t.Run(string(f), func(t *testing.T) {
			dir := t.TempDir()
			w := NewWriter(dir, f, []string{"pt-BR"})

			paths, err := w.Write("posts/_post.html.erb", sampleRecords)
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if want := filepath.Join(dir, "posts", "post.pt-BR."+f.Ext()); paths[0] != want {
				t.Errorf("path = %q, want %q", paths[0], want)
			}

			mismatches, err := Verify(paths[0], "pt-BR", Scope("posts/_post.html.erb"), sampleRecords)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if len(mismatches) != 0 {
				t.Errorf("Verify() mismatches = %+v", mismatches)
			}
		})
	}
}

func TestWriter_MergesExisting(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, FormatYAML, []string{"en"})
	p := w.Path("users/show.html.erb", "en")

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	existing := "en:\n  users:\n    show:\n      back: Back\n"
	if err := os.WriteFile(p, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := w.Write("users/show.html.erb", sampleRecords[:1]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]map[string]map[string]map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	show := doc["en"]["users"]["show"]
	if show["back"] != "Back" || show["profile"] != "Profile" {
		t.Errorf("merged document = %v", show)
	}
}

func TestWriter_PathConflict(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, FormatYAML, []string{"en"})
	p := w.Path("users/show.html.erb", "en")

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("en:\n  users: flat\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := w.Write("users/show.html.erb", sampleRecords)
	if !errors.Is(err, ErrPathConflict) {
		t.Errorf("Write() error = %v, want ErrPathConflict", err)
	}
}

func TestWriter_NoRecords(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewWriter(dir, FormatYAML, []string{"en"}).Write("a.html.erb", nil)
	if err != nil || paths != nil {
		t.Errorf("Write(nil) = %v, %v", paths, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Write(nil) created %d entries", len(entries))
	}
}
