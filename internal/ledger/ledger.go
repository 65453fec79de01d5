package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/henriquecf/i18n-parser/internal/parser"
	"github.com/henriquecf/i18n-parser/internal/worker"
)

// batchSize bounds the number of statements queued per round trip.
const batchSize = 200

// DB is the subset of pgxpool.Pool the ledger needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var _ DB = (*pgxpool.Pool)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS i18n_records (
	file        TEXT NOT NULL,
	key         TEXT NOT NULL,
	text        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	line        INTEGER NOT NULL,
	rules       TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (file, key, text)
);
CREATE TABLE IF NOT EXISTS i18n_warnings (
	id          BIGSERIAL PRIMARY KEY,
	file        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	key         TEXT NOT NULL,
	text        TEXT NOT NULL,
	line        INTEGER NOT NULL,
	occurrences INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const upsertRecord = `
INSERT INTO i18n_records (file, key, text, kind, line, rules)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (file, key, text)
DO UPDATE SET kind = EXCLUDED.kind, line = EXCLUDED.line, rules = EXCLUDED.rules, updated_at = now()`

const insertWarning = `
INSERT INTO i18n_warnings (file, kind, key, text, line, occurrences)
VALUES ($1, $2, $3, $4, $5, $6)`

// Ledger persists what each run extracted and every warning it raised, so
// rewrites can be reviewed after the fact.
type Ledger struct {
	db    DB
	rules string
}

// Connect opens a pool and checks the database is reachable.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// New creates a ledger tagging rows with the given ruleset version.
func New(db DB, rulesVersion string) *Ledger {
	return &Ledger{db: db, rules: rulesVersion}
}

// EnsureSchema creates the ledger tables if they do not exist.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

// Save stores the records extracted from file and the warnings raised while
// rewriting it.
func (l *Ledger) Save(ctx context.Context, file string, records []parser.Translatable, report parser.Report) error {
	for _, chunk := range worker.Batch(records, batchSize) {
		b := &pgx.Batch{}
		for _, r := range chunk {
			b.Queue(upsertRecord, file, r.Key, r.Text, string(r.Type), r.Line, l.rules)
		}
		if err := l.send(ctx, b); err != nil {
			return fmt.Errorf("save records of %s: %w", file, err)
		}
	}

	for _, chunk := range worker.Batch(report.Warnings, batchSize) {
		b := &pgx.Batch{}
		for _, w := range chunk {
			b.Queue(insertWarning, file, string(w.Kind), w.Key, w.Text, w.Line, w.Count)
		}
		if err := l.send(ctx, b); err != nil {
			return fmt.Errorf("save warnings of %s: %w", file, err)
		}
	}

	return nil
}

func (l *Ledger) send(ctx context.Context, b *pgx.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	results := l.db.SendBatch(ctx, b)
	defer results.Close()

	for i := 0; i < b.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
