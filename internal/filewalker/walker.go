package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/henriquecf/i18n-parser/internal/parser"

	"github.com/rs/zerolog/log"
)

// Walker traverses directories and dispatches files to the correct parser.
type Walker struct {
	parsers []parser.Parser
}

// NewWalker creates a Walker over the given parsers.
func NewWalker(parsers ...parser.Parser) *Walker {
	return &Walker{parsers: parsers}
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	// Path is the absolute path of the file.
	Path string
	// Rel is the path relative to the walked root, slash separated.
	Rel    string
	Parser parser.Parser
}

// Walk discovers all supported templates under root. When root is a file it
// is returned alone, relative to its own directory.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}

	if !info.IsDir() {
		p := w.parserFor(root)
		if p == nil {
			return nil, fmt.Errorf("unsupported file: %s", root)
		}
		return []FileEntry{{Path: root, Rel: filepath.Base(root), Parser: p}}, nil
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		p := w.parserFor(path)
		if p == nil {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", path, err)
		}
		entries = append(entries, FileEntry{
			Path:   path,
			Rel:    filepath.ToSlash(rel),
			Parser: p,
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered templates")
	return entries, nil
}

func (w *Walker) parserFor(path string) parser.Parser {
	name := filepath.Base(path)
	for _, p := range w.parsers {
		if p.CanParse(name) {
			return p
		}
	}
	return nil
}

// ParseFile reads and parses a single file using its parser.
func (w *Walker) ParseFile(entry FileEntry) (*parser.ParseResult, error) {
	src, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entry.Rel, err)
	}
	return entry.Parser.Parse(entry.Path, src)
}
