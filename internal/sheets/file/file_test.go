package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"findash/internal/core"
	ports "findash/internal/sheets"
)

var sampleRows = map[string][][]interface{}{
	"P&L": {
		{"Item", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		{"Income", 100, 110, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210},
		{"Expenses", 80, 90, 95, 100, 105, 110, 115, 120, 125, 130, 135, 140},
		{"Profit", 20, 20, 25, 30, 35, 40, 45, 50, 55, 60, 65, 70},
		{"Profitability, %", 5, 6, 4, 6.5, 7, 7.5, 8, 8.2, 8.5, 9, 9.3, 9.6},
		{"R&D", 20, 22, 25, 25, 26, 28, 30, 30, 32, 33, 35, 36},
		{"Sales & management", 30, 33, 35, 38, 40, 42, 44, 46, 48, 50, 52, 54},
	},
	"Cash flow": {
		{"Cash at start", 500, 520, 550, 585, 625, 670, 720, 775, 835, 900, 970, 1045},
		{"Cash at end", 520, 550, 585, 625, 670, 720, 775, 835, 900, 970, 1045, 1125},
	},
	"Balance": {
		{"Cash", 520, 550, 585, 625, 670},
		{"Inventory", 200, 210, 190, 205, 215},
		{"Finished goods", 80, 85, 90, 70, 95},
	},
}

func writeXLSX(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet %s: %v", name, err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			r := row
			if err := f.SetSheetRow(name, cell, &r); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestReaderXLSX(t *testing.T) {
	path := writeXLSX(t, sampleRows)
	tbl, err := New(path, ports.DefaultLayout()).ReadTable(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	profitability, _ := tbl.Row(core.Profitability)
	if profitability[3] != 6.5 {
		t.Fatalf("unexpected profitability: %v", profitability)
	}
	if tbl.BalanceMonths() != 5 {
		t.Fatalf("expected balance block")
	}
	if tbl.Source() != "file:plan.xlsx" {
		t.Fatalf("unexpected source %q", tbl.Source())
	}
}

func TestReaderXLSXMissingSheet(t *testing.T) {
	rows := map[string][][]interface{}{"P&L": sampleRows["P&L"]}
	path := writeXLSX(t, rows)
	_, err := New(path, ports.DefaultLayout()).ReadTable(context.Background())
	if !errors.Is(err, core.ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
}

func csvText(t *testing.T, sep rune) string {
	t.Helper()
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Comma = sep
	for _, name := range []string{"P&L", "Cash flow", "Balance"} {
		for _, row := range sampleRows[name] {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = fmt.Sprint(v)
				if sep == ';' {
					cells[i] = strings.ReplaceAll(cells[i], ".", ",")
				}
			}
			if err := w.Write(cells); err != nil {
				t.Fatal(err)
			}
		}
	}
	w.Flush()
	return b.String()
}

func TestReaderCSV(t *testing.T) {
	for _, sep := range []rune{',', ';'} {
		path := filepath.Join(t.TempDir(), "plan.csv")
		content := "\xEF\xBB\xBF" + csvText(t, sep)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		tbl, err := New(path, ports.DefaultLayout()).ReadTable(context.Background())
		if err != nil {
			t.Fatalf("sep %c: read: %v", sep, err)
		}
		profitability, _ := tbl.Row(core.Profitability)
		if profitability[3] != 6.5 {
			t.Fatalf("sep %c: unexpected profitability: %v", sep, profitability)
		}
		if tbl.BalanceMonths() != 5 {
			t.Fatalf("sep %c: expected balance block", sep)
		}
	}
}

func TestReadWorkbookUnsupported(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader(""), ".xls", ports.DefaultLayout())
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "none.csv"), ports.DefaultLayout()).ReadTable(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
}

func TestReaderSampleCSV(t *testing.T) {
	tbl, err := New(filepath.Join("..", "..", "..", "data", "sample.csv"), ports.DefaultLayout()).ReadTable(context.Background())
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	income, _ := tbl.Row(core.Income)
	if income[2] != 130 || core.Totals(income.Slice()) != 1970 {
		t.Fatalf("unexpected income %v", income)
	}
	if tbl.BalanceMonths() != 5 {
		t.Fatalf("expected a 5 month balance block, got %d", tbl.BalanceMonths())
	}
	if w := tbl.Warnings(); len(w) != 0 {
		t.Fatalf("sample should be clean, got %v", w)
	}
}
