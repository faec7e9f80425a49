package google

import (
	"testing"

	"findash/internal/core"
	ports "findash/internal/sheets"
)

func TestSheetRangeQuotesNames(t *testing.T) {
	cases := map[string]string{
		"P&L":           "'P&L'",
		"Cash flow":     "'Cash flow'",
		"ФО 2025 ПЛАН":  "'ФО 2025 ПЛАН'",
		"Owner's notes": "'Owner''s notes'",
	}
	for in, want := range cases {
		if got := sheetRange(in); got != want {
			t.Fatalf("sheetRange(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCellText(t *testing.T) {
	if got := cellText(1234.5); got != "1234.5" {
		t.Fatalf("float: %q", got)
	}
	if got := cellText(1e7); got != "10000000" {
		t.Fatalf("large float: %q", got)
	}
	if got := cellText(" 5% "); got != "5%" {
		t.Fatalf("string: %q", got)
	}
	if got := cellText(nil); got != "" {
		t.Fatalf("nil: %q", got)
	}
	if got := cellText(true); got != "true" {
		t.Fatalf("bool: %q", got)
	}
}

// A BatchGet response as it comes back for the default layout.
func TestToWorkbookRowsParses(t *testing.T) {
	row := func(label string, start float64) []interface{} {
		out := []interface{}{label}
		for m := 0; m < core.MonthsInYear; m++ {
			out = append(out, start+float64(m))
		}
		return out
	}
	wb := ports.Workbook{
		"P&L": toWorkbookRows([][]interface{}{
			{"Item", "Jan"},
			row("Income", 100),
			row("Expenses", 80),
			row("Profit", 20),
			row("Profitability, %", 5),
			row("R&D", 20),
			row("Sales & management", 30),
		}),
		"Cash flow": toWorkbookRows([][]interface{}{
			row("Cash at start", 500),
			row("Cash at end", 520),
		}),
	}
	tbl, err := ports.ParseWorkbook(wb, ports.DefaultLayout(), "sheets:test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	income, _ := tbl.Row(core.Income)
	if income[3] != 103 {
		t.Fatalf("unexpected income: %v", income)
	}
	if tbl.BalanceMonths() != 0 {
		t.Fatalf("balance sheet absent, expected no balance")
	}
}
