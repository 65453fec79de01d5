package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/henriquecf/i18n-parser/internal/parser"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "users", "show.html.erb"), "<h1>Profile</h1>")
	writeFile(t, filepath.Join(root, "users", "_form.html.erb"), "<label>Name</label>")
	writeFile(t, filepath.Join(root, "layouts", "application.html.erb"), "<title>App</title>")
	writeFile(t, filepath.Join(root, "users", "index.json.jbuilder"), "json.x 1")
	writeFile(t, filepath.Join(root, ".cache", "stale.html.erb"), "<p>Old</p>")

	w := NewWalker(parser.NewERBParser(nil, parser.ModeSpans))
	entries, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{
		"layouts/application.html.erb",
		"users/_form.html.erb",
		"users/show.html.erb",
	}
	if len(entries) != len(want) {
		t.Fatalf("Walk() returned %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i, rel := range want {
		if entries[i].Rel != rel {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Rel, rel)
		}
		if !filepath.IsAbs(entries[i].Path) {
			t.Errorf("entry %d path %q is not absolute", i, entries[i].Path)
		}
	}

	res, err := w.ParseFile(entries[2])
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(res.Texts) != 1 || res.Texts[0].Key != "profile" {
		t.Errorf("ParseFile() texts = %+v", res.Texts)
	}
}

func TestWalk_SingleFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "show.html.erb")
	writeFile(t, path, "<p>Hi there</p>")

	w := NewWalker(parser.NewERBParser(nil, parser.ModeSpans))
	entries, err := w.Walk(path)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Rel != "show.html.erb" {
		t.Errorf("Walk() = %+v", entries)
	}

	other := filepath.Join(root, "notes.txt")
	writeFile(t, other, "x")
	if _, err := w.Walk(other); err == nil {
		t.Error("Walk() on unsupported file error = nil")
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	w := NewWalker(parser.NewERBParser(nil, parser.ModeSpans))
	if _, err := w.Walk(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Walk() error = nil for missing root")
	}
}
