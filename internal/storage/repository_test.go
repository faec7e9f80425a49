package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"findash/internal/core"
	"findash/internal/sheets/memory"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "findash.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositoryEmpty(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.ReadTable(context.Background()); !errors.Is(err, ErrNoImports) {
		t.Fatalf("expected ErrNoImports, got %v", err)
	}
}

func TestRepositorySaveAndRead(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	src, err := memory.NewDemo().ReadTable(ctx)
	if err != nil {
		t.Fatal(err)
	}
	ref, err := repo.SaveTable(ctx, src)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref != "sqlite:1" {
		t.Fatalf("unexpected ref %q", ref)
	}

	got, err := repo.ReadTable(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, c := range core.Categories {
		want, _ := src.Row(c)
		have, _ := got.Row(c)
		if want != have {
			t.Fatalf("%s: got %v want %v", c, have, want)
		}
		wantTotal, wantOK := src.YearTotal(c)
		haveTotal, haveOK := got.YearTotal(c)
		if wantOK != haveOK || wantTotal != haveTotal {
			t.Fatalf("%s total: got %v/%v want %v/%v", c, haveTotal, haveOK, wantTotal, wantOK)
		}
	}
	if got.BalanceMonths() != 5 {
		t.Fatalf("expected 5 balance months, got %d", got.BalanceMonths())
	}
	cash, _ := got.Balance(core.Cash)
	if cash[4] != 670 {
		t.Fatalf("unexpected cash balance %v", cash)
	}
	if got.Source() != "sqlite:demo" {
		t.Fatalf("unexpected source %q", got.Source())
	}
}

func TestRepositoryServesLatestAndPrunes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := memory.DemoData()
	first.Balance = nil
	firstTable, _ := core.NewTable(first)
	if _, err := repo.SaveTable(ctx, firstTable); err != nil {
		t.Fatal(err)
	}

	second := memory.DemoData()
	second.Source = "second"
	secondTable, _ := core.NewTable(second)
	if _, err := repo.SaveTable(ctx, secondTable); err != nil {
		t.Fatal(err)
	}

	imp, err := repo.LastImport(ctx)
	if err != nil || imp.ID != 2 || imp.Source != "second" {
		t.Fatalf("unexpected last import %+v err=%v", imp, err)
	}

	n, err := repo.PruneImports(ctx, 1)
	if err != nil || n != 1 {
		t.Fatalf("prune: n=%d err=%v", n, err)
	}
	got, err := repo.ReadTable(ctx)
	if err != nil {
		t.Fatalf("read after prune: %v", err)
	}
	if got.Source() != "sqlite:second" || got.BalanceMonths() != 5 {
		t.Fatalf("unexpected table after prune: %s %d", got.Source(), got.BalanceMonths())
	}
}
