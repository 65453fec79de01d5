package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/henriquecf/i18n-parser/internal/cache"
	"github.com/henriquecf/i18n-parser/internal/config"
	"github.com/henriquecf/i18n-parser/internal/filewalker"
	"github.com/henriquecf/i18n-parser/internal/ledger"
	"github.com/henriquecf/i18n-parser/internal/locale"
	"github.com/henriquecf/i18n-parser/internal/parser"
	"github.com/henriquecf/i18n-parser/internal/textutil"
	"github.com/henriquecf/i18n-parser/internal/worker"

	"github.com/rs/zerolog/log"
)

// extractor processes one template at a time. Its collaborators are safe for
// concurrent use by the worker pool.
type extractor struct {
	cfg    *config.Config
	walker *filewalker.Walker
	writer *locale.Writer
	index  *cache.KeyIndex
	ledger *ledger.Ledger
	dryRun bool
}

// fileSummary is what one template contributed to the run.
type fileSummary struct {
	records  int
	applied  int
	warnings int
	written  bool
}

// runExtract handles the `extract` command.
func runExtract(root string, opts *options) error {
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

	format, err := locale.ParseFormat(cfg.LocaleFormat)
	if err != nil {
		return err
	}

	ex := &extractor{
		cfg:    cfg,
		walker: filewalker.NewWalker(erb),
		writer: locale.NewWriter(cfg.LocaleDir, format, cfg.AllLocales()),
		index:  cache.NewKeyIndex(),
		dryRun: opts.dryRun,
	}

	if cfg.DatabaseURL != "" && !opts.dryRun {
		pool, err := ledger.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		ex.ledger = ledger.New(pool, erb.Rules().Version)
		if err := ex.ledger.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	entries, err := ex.walker.Walk(root)
	if err != nil {
		return fmt.Errorf("walk input: %w", err)
	}

	log.Info().
		Int("files", len(entries)).
		Strs("locales", cfg.AllLocales()).
		Str("format", string(format)).
		Str("mode", cfg.RewriteMode).
		Bool("dry_run", opts.dryRun).
		Msg("Starting extraction")

	pool := worker.NewPool[filewalker.FileEntry, fileSummary](cfg.WorkerCount, ex.process)
	results := pool.Execute(ctx, entries)

	var total fileSummary
	var failed, written int
	for _, r := range results {
		if !r.Done {
			continue
		}
		if r.Err != nil {
			failed++
			log.Error().Err(r.Err).Str("file", r.Input.Rel).Msg("Extraction failed")
			continue
		}
		total.records += r.Result.records
		total.applied += r.Result.applied
		total.warnings += r.Result.warnings
		if r.Result.written {
			written++
		}
	}

	if shared := ex.index.Shared(); len(shared) > 0 {
		log.Info().Int("keys", len(shared)).Strs("sample", head(shared, 10)).Msg("Keys used by several templates")
	}

	log.Info().
		Int("files", len(entries)).
		Int("rewritten", written).
		Int("failed", failed).
		Int("records", total.records).
		Int("keys", ex.index.Len()).
		Int("replaced", total.applied).
		Int("warnings", total.warnings).
		Msg("Extraction complete")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("extraction interrupted: %w", err)
	}
	return nil
}

// process extracts, rewrites and records a single template.
func (ex *extractor) process(ctx context.Context, entry filewalker.FileEntry) (fileSummary, error) {
	result, err := ex.walker.ParseFile(entry)
	if err != nil {
		return fileSummary{}, err
	}

	sum := fileSummary{records: len(result.Texts)}
	if len(result.Texts) == 0 {
		log.Debug().Str("file", entry.Rel).Msg("No translatable text")
		return sum, nil
	}

	out, report, err := entry.Parser.Reconstruct(result)
	if err != nil {
		return sum, fmt.Errorf("reconstruct %s: %w", entry.Rel, err)
	}
	sum.applied = report.Applied
	sum.warnings = len(report.Warnings)

	logReport(entry.Rel, report)

	for _, t := range result.Texts {
		if c, conflict := ex.index.Record(entry.Rel, t.Key, t.Text); conflict {
			log.Info().
				Str("key", c.Key).
				Str("file", c.Scope).
				Str("text", textutil.Truncate(c.Text, 40)).
				Str("other_file", c.OtherScope).
				Str("other_text", textutil.Truncate(c.OtherText, 40)).
				Msg("Key reused with different text")
		}
	}

	if ex.dryRun {
		log.Info().
			Str("file", entry.Rel).
			Int("records", sum.records).
			Int("replaced", sum.applied).
			Str("locale_file", ex.writer.Path(entry.Rel, ex.cfg.DefaultLocale)).
			Msg("Dry run, nothing written")
		return sum, nil
	}

	if string(out) != result.Source {
		if err := writeInPlace(entry.Path, out); err != nil {
			return sum, err
		}
		sum.written = true
	}

	paths, err := ex.writer.Write(entry.Rel, result.Texts)
	if err != nil {
		return sum, fmt.Errorf("write locale documents for %s: %w", entry.Rel, err)
	}
	if len(paths) > 0 {
		ex.verify(paths[0], entry.Rel, result.Texts)
	}

	if ex.ledger != nil {
		if err := ex.ledger.Save(ctx, entry.Rel, result.Texts, report); err != nil {
			log.Warn().Err(err).Str("file", entry.Rel).Msg("Failed to record run in ledger")
		}
	}

	log.Debug().
		Str("file", entry.Rel).
		Int("records", sum.records).
		Int("replaced", sum.applied).
		Msg("Template processed")

	return sum, nil
}

// verify reloads the default locale document and logs keys that no longer
// resolve to their text, which happens when two texts of a template share a
// key.
func (ex *extractor) verify(path, rel string, records []parser.Translatable) {
	mismatches, err := locale.Verify(path, ex.cfg.DefaultLocale, locale.Scope(rel), records)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Locale document does not load")
		return
	}
	for _, m := range mismatches {
		ev := log.Warn().Str("id", m.ID).Str("want", textutil.Truncate(m.Want, 40))
		if m.Err != nil {
			ev = ev.Err(m.Err)
		} else {
			ev = ev.Str("got", textutil.Truncate(m.Got, 40))
		}
		ev.Msg("Locale key does not resolve to its text")
	}
}

func logReport(rel string, report parser.Report) {
	for _, w := range report.Warnings {
		ev := log.Warn().
			Str("file", rel).
			Str("kind", string(w.Kind)).
			Str("key", w.Key).
			Str("text", textutil.Truncate(w.Text, 40))
		if w.Line > 0 {
			ev = ev.Int("line", w.Line)
		}
		if w.Count > 0 {
			ev = ev.Int("occurrences", w.Count)
		}
		ev.Msg("Substitution warning")
	}
}

func writeInPlace(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
