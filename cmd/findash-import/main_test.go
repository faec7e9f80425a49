package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"findash/internal/config"
	applog "findash/internal/log"
	"findash/internal/storage"
)

const planCSV = `Item,Jan,Feb,Mar,Apr,May,Jun,Jul,Aug,Sep,Oct,Nov,Dec
Income,100,110,120,130,140,150,160,170,180,190,200,210
Expenses,80,90,95,100,105,110,115,120,125,130,135,140
Profit,20,20,25,30,35,40,45,50,55,60,65,70
"Profitability, %",5,6,4,6.5,7,7.5,8,8.2,8.5,9,9.3,9.6
R&D,20,22,25,25,26,28,30,30,32,33,35,36
Sales & management,30,33,35,38,40,42,44,46,48,50,52,54
Cash at start,500,520,550,585,625,670,720,775,835,900,970,1045
Cash at end,520,550,585,625,670,720,775,835,900,970,1045,1125
`

type fakePublisher struct {
	refs   []string
	closed bool
}

func (f *fakePublisher) PublishTableUpdated(_ context.Context, _, ref string) error {
	f.refs = append(f.refs, ref)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func setup(t *testing.T) (csvPath string, cfg *config.Config) {
	t.Helper()
	dir := t.TempDir()
	csvPath = filepath.Join(dir, "plan.csv")
	if err := os.WriteFile(csvPath, []byte(planCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg = &config.Config{
		SQLiteDBPath: filepath.Join(dir, "findash.db"),
		AMQPExchange: "findash",
	}
	return csvPath, cfg
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(cfg, applog.New(applog.Config{Output: io.Discard}))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDryRunDoesNotSave(t *testing.T) {
	csvPath, cfg := setup(t)
	out, err := execute(t, cfg, "--dry-run", csvPath)
	if err != nil {
		t.Fatalf("dry run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "file:plan.csv") || !strings.Contains(out, "860,00") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if _, err := os.Stat(cfg.SQLiteDBPath); !os.IsNotExist(err) {
		t.Fatalf("dry run should not create the database: %v", err)
	}
}

func TestImportSavesAndPrunes(t *testing.T) {
	csvPath, cfg := setup(t)
	for i := 0; i < 3; i++ {
		if out, err := execute(t, cfg, "--keep", "2", csvPath); err != nil {
			t.Fatalf("import %d: %v\n%s", i, err, out)
		}
	}

	out, err := execute(t, cfg, "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "import 3 from file:plan.csv") {
		t.Fatalf("unexpected status %q", out)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	if n, err := repo.PruneImports(context.Background(), 2); err != nil || n != 0 {
		t.Fatalf("older imports should already be pruned: n=%d err=%v", n, err)
	}
	tbl, err := repo.ReadTable(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if income, _ := tbl.Row("Income"); income[11] != 210 {
		t.Fatalf("unexpected income %v", income)
	}
}

func TestImportPublishes(t *testing.T) {
	csvPath, cfg := setup(t)
	fake := &fakePublisher{}
	orig := newPublisher
	newPublisher = func(url, exchange string) (publisher, error) {
		if url != "amqp://broker" || exchange != "findash" {
			t.Errorf("unexpected publisher target %s %s", url, exchange)
		}
		return fake, nil
	}
	t.Cleanup(func() { newPublisher = orig })

	if out, err := execute(t, cfg, "--publish", "--amqp-url", "amqp://broker", csvPath); err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if len(fake.refs) != 1 || fake.refs[0] != "sqlite:1" || !fake.closed {
		t.Fatalf("unexpected publish %+v", fake)
	}
}

func TestImportErrors(t *testing.T) {
	csvPath, cfg := setup(t)

	if _, err := execute(t, cfg, "--publish", csvPath); err == nil || !strings.Contains(err.Error(), "--amqp-url") {
		t.Fatalf("expected missing AMQP URL error, got %v", err)
	}
	if _, err := execute(t, cfg); err == nil {
		t.Fatal("expected an argument error")
	}

	broken := filepath.Join(t.TempDir(), "broken.csv")
	if err := os.WriteFile(broken, []byte(strings.Replace(planCSV, "130,", "abc,", 1)), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, cfg, broken); err == nil || !strings.Contains(err.Error(), "malformed row") {
		t.Fatalf("expected malformed row, got %v", err)
	}
}

func TestStatusWithoutImports(t *testing.T) {
	_, cfg := setup(t)
	out, err := execute(t, cfg, "status")
	if err != nil || strings.TrimSpace(out) != "no imports yet" {
		t.Fatalf("status: %q %v", out, err)
	}
}
