package costs

import (
	"context"
	"errors"
	"testing"

	platformerrors "github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/storage"
)

type staticFetcher struct {
	body []byte
	err  error
}

func (f staticFetcher) Fetch(context.Context, string) ([]byte, error) {
	return f.body, f.err
}

const sampleExport = `{
	"rows": [
		{"project": "crush", "service": "app-service", "amount": "12.50", "currency": "EUR", "date": "2026-07-03"},
		{"project": "crush", "service": "postgres", "amount": 40, "currency": "EUR", "date": "2026-07-15"},
		{"project": "cellar", "service": "blob", "amount": 3.99, "date": "2026-07-20"},
		{"project": "cellar", "service": "blob", "amount": 4.01, "date": "2026-08-01"}
	]
}`

func TestImportParsesExport(t *testing.T) {
	store := storage.NewMemory()
	svc := New(store, staticFetcher{body: []byte(sampleExport)}, "https://costs.example/export", nil)

	n, err := svc.Import(context.Background())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 entries, got %d", n)
	}

	entries, err := svc.Entries(context.Background(), "crush", "2026-07")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 crush July entries, got %d", len(entries))
	}
	if entries[0].AmountCents != 1250 {
		t.Fatalf("expected 1250 cents, got %d", entries[0].AmountCents)
	}
	if entries[0].Currency != "EUR" {
		t.Fatalf("expected EUR, got %q", entries[0].Currency)
	}
	if entries[0].ImportedAt.IsZero() {
		t.Fatal("imported_at should be set")
	}
}

func TestImportDefaultsCurrency(t *testing.T) {
	store := storage.NewMemory()
	svc := New(store, staticFetcher{body: []byte(sampleExport)}, "https://costs.example/export", nil)

	if _, err := svc.Import(context.Background()); err != nil {
		t.Fatalf("import: %v", err)
	}
	entries, err := svc.Entries(context.Background(), "cellar", "")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	for _, e := range entries {
		if e.Currency != "EUR" {
			t.Fatalf("expected EUR default, got %q", e.Currency)
		}
	}
}

func TestImportRoundsNegativeAmounts(t *testing.T) {
	store := storage.NewMemory()
	export := `{"rows": [
		{"project": "cellar", "service": "blob", "amount": -3.99, "date": "2026-07-05"},
		{"project": "cellar", "service": "blob", "amount": -12.50, "date": "2026-07-06"}
	]}`
	svc := New(store, staticFetcher{body: []byte(export)}, "https://costs.example/export", nil)

	if _, err := svc.Import(context.Background()); err != nil {
		t.Fatalf("import: %v", err)
	}
	entries, err := svc.Entries(context.Background(), "cellar", "2026-07")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Credits keep their full value instead of rounding toward zero.
	var total int64
	for _, e := range entries {
		total += e.AmountCents
	}
	if total != -1649 {
		t.Fatalf("expected -1649 cents total, got %d", total)
	}
}

func TestImportRejectsMalformedExport(t *testing.T) {
	store := storage.NewMemory()

	svc := New(store, staticFetcher{body: []byte(`{"rows": "nope"}`)}, "https://costs.example/export", nil)
	if _, err := svc.Import(context.Background()); !platformerrors.Is(err, platformerrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	svc = New(store, staticFetcher{body: []byte(`{"rows":[{"project":"x","service":"y","amount":1,"date":"not-a-date"}]}`)}, "https://costs.example/export", nil)
	if _, err := svc.Import(context.Background()); !platformerrors.Is(err, platformerrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input for bad date, got %v", err)
	}
}

func TestImportFetchFailure(t *testing.T) {
	store := storage.NewMemory()
	svc := New(store, staticFetcher{err: errors.New("connection refused")}, "https://costs.example/export", nil)

	if _, err := svc.Import(context.Background()); !platformerrors.Is(err, platformerrors.CodeDependencyFailure) {
		t.Fatalf("expected dependency failure, got %v", err)
	}
}

func TestRollupAggregatesByProjectAndMonth(t *testing.T) {
	store := storage.NewMemory()
	svc := New(store, staticFetcher{body: []byte(sampleExport)}, "https://costs.example/export", nil)

	if _, err := svc.Import(context.Background()); err != nil {
		t.Fatalf("import: %v", err)
	}

	rollups, err := svc.Rollup(context.Background(), "2026-07")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}
	if len(rollups) != 2 {
		t.Fatalf("expected 2 rollups, got %d", len(rollups))
	}

	byProject := map[string]int64{}
	for _, r := range rollups {
		if r.Month != "2026-07" {
			t.Fatalf("unexpected month %q", r.Month)
		}
		byProject[r.Project] = r.AmountCents
	}
	if byProject["crush"] != 5250 {
		t.Fatalf("expected crush 5250 cents, got %d", byProject["crush"])
	}
	if byProject["cellar"] != 399 {
		t.Fatalf("expected cellar 399 cents, got %d", byProject["cellar"])
	}

	stored, err := svc.Rollups(context.Background(), "")
	if err != nil {
		t.Fatalf("rollups: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected rollups to be persisted, got %d", len(stored))
	}
}

func TestRollupValidatesMonth(t *testing.T) {
	svc := New(storage.NewMemory(), staticFetcher{}, "", nil)
	if _, err := svc.Rollup(context.Background(), "July 2026"); !platformerrors.Is(err, platformerrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
