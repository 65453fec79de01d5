package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/henriquecf/i18n-parser/internal/filewalker"
	"github.com/henriquecf/i18n-parser/internal/locale"
	"github.com/henriquecf/i18n-parser/internal/parser"
	"github.com/henriquecf/i18n-parser/internal/textutil"
	"github.com/henriquecf/i18n-parser/internal/worker"

	"github.com/rs/zerolog/log"
)

// scannedFile is the JSON shape printed by `scan --json`.
type scannedFile struct {
	File    string                `json:"file"`
	Records []parser.Translatable `json:"records"`
}

// runScan handles the `scan` command.
func runScan(out io.Writer, root string, opts *options, asJSON, explain bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	erb, err := newParser(cfg)
	if err != nil {
		return err
	}

	w := filewalker.NewWalker(erb)
	entries, err := w.Walk(root)
	if err != nil {
		return fmt.Errorf("walk input: %w", err)
	}

	pool := worker.NewPool[filewalker.FileEntry, *parser.ParseResult](cfg.WorkerCount,
		func(ctx context.Context, entry filewalker.FileEntry) (*parser.ParseResult, error) {
			return w.ParseFile(entry)
		},
	)
	results := pool.Execute(ctx, entries)

	var files []scannedFile
	for _, r := range results {
		if !r.Done {
			continue
		}
		if r.Err != nil {
			log.Error().Err(r.Err).Str("file", r.Input.Rel).Msg("Parse failed")
			continue
		}
		if explain {
			explainRejections(r.Input.Rel, r.Result.Source, erb)
		}
		files = append(files, scannedFile{File: r.Input.Rel, Records: r.Result.Texts})
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(files); err != nil {
			return fmt.Errorf("encode records: %w", err)
		}
		return nil
	}

	return printRecords(out, files)
}

func printRecords(out io.Writer, files []scannedFile) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINE\tTYPE\tKEY\tTEXT")

	total := 0
	for _, f := range files {
		scope := locale.Scope(f.File)
		for _, t := range f.Records {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", f.File, t.Line, t.Type, scopedKey(scope, t.Key), textutil.Truncate(t.Text, 60))
			total++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\n%d records in %d files\n", total, len(files))
	return err
}

func scopedKey(scope []string, key string) string {
	return strings.Join(append(scope, key), ".")
}

func explainRejections(rel, src string, erb *parser.ERBParser) {
	for _, r := range parser.RejectedHTML(src, erb.Rules()) {
		// whitespace between tags
		if r.Rule.Name == "blank" {
			continue
		}
		log.Info().
			Str("file", rel).
			Int("line", textutil.LineAt(src, r.Candidate.Start)).
			Str("rule", r.Rule.Name).
			Str("span", textutil.Truncate(r.Candidate.Text, 40)).
			Msg("Rejected text node")
	}
}
