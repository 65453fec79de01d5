package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/henriquecf/i18n-parser/internal/parser"
)

type fakeResults struct {
	failAt int
	calls  int
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	r.calls++
	if r.failAt > 0 && r.calls == r.failAt {
		return pgconn.CommandTag{}, errors.New("unique violation")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (r *fakeResults) QueryRow() pgx.Row         { return nil }
func (r *fakeResults) Close() error              { return nil }

type fakeDB struct {
	execs   []string
	batches []*pgx.Batch
	failAt  int
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batches = append(f.batches, b)
	return &fakeResults{failAt: f.failAt}
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	if err := New(db, "1").EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if len(db.execs) != 1 || !strings.Contains(db.execs[0], "i18n_records") || !strings.Contains(db.execs[0], "i18n_warnings") {
		t.Errorf("EnsureSchema() executed %q", db.execs)
	}
}

func TestSave(t *testing.T) {
	records := []parser.Translatable{
		{Text: "Profile", Key: "profile", Type: parser.TypeHTML, Line: 3},
		{Text: "Edit", Key: "edit", Type: parser.TypeERB, Line: 7},
	}
	report := parser.Report{
		Applied:  1,
		Warnings: []parser.Warning{{Kind: parser.WarnAmbiguous, Key: "edit", Text: "Edit", Count: 2}},
	}

	db := &fakeDB{}
	if err := New(db, "1").Save(context.Background(), "users/show.html.erb", records, report); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(db.batches) != 2 {
		t.Fatalf("Save() sent %d batches, want 2", len(db.batches))
	}
	if db.batches[0].Len() != 2 || db.batches[1].Len() != 1 {
		t.Errorf("batch sizes = %d, %d; want 2, 1", db.batches[0].Len(), db.batches[1].Len())
	}

	q := db.batches[0].QueuedQueries[1]
	if q.SQL != upsertRecord {
		t.Errorf("queued SQL = %q", q.SQL)
	}
	want := []any{"users/show.html.erb", "edit", "Edit", "erb", 7, "1"}
	for i, v := range want {
		if q.Arguments[i] != v {
			t.Errorf("argument %d = %v, want %v", i, q.Arguments[i], v)
		}
	}
}

func TestSave_Chunks(t *testing.T) {
	records := make([]parser.Translatable, batchSize+5)
	for i := range records {
		records[i] = parser.Translatable{Text: "x", Key: "x", Type: parser.TypeHTML}
	}

	db := &fakeDB{}
	if err := New(db, "1").Save(context.Background(), "a.html.erb", records, parser.Report{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(db.batches) != 2 || db.batches[0].Len() != batchSize || db.batches[1].Len() != 5 {
		t.Errorf("Save() batches = %d", len(db.batches))
	}
}

func TestSave_Error(t *testing.T) {
	db := &fakeDB{failAt: 1}
	records := []parser.Translatable{{Text: "Profile", Key: "profile", Type: parser.TypeHTML}}

	err := New(db, "1").Save(context.Background(), "a.html.erb", records, parser.Report{})
	if err == nil || !strings.Contains(err.Error(), "save records of a.html.erb") {
		t.Errorf("Save() error = %v", err)
	}
}

func TestSave_Empty(t *testing.T) {
	db := &fakeDB{}
	if err := New(db, "1").Save(context.Background(), "a.html.erb", nil, parser.Report{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(db.batches) != 0 {
		t.Errorf("Save() sent %d batches for no rows", len(db.batches))
	}
}
