package render

import (
	"errors"
	"strings"
	"testing"

	chart "github.com/wcharczuk/go-chart/v2"

	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/sheets/memory"
)

func demoDashboard(t *testing.T, sel core.Selection) *dashboard.Dashboard {
	t.Helper()
	tbl, err := core.NewTable(memory.DemoData())
	if err != nil {
		t.Fatal(err)
	}
	d, err := dashboard.Build(tbl, sel, dashboard.Options{Currency: "грн"})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSVGRendersSupportedCharts(t *testing.T) {
	month, _ := core.Month(2)
	for _, sel := range []core.Selection{core.AllMonths, month} {
		d := demoDashboard(t, sel)
		for _, name := range []string{
			dashboard.ChartIncomeExpenses,
			dashboard.ChartProfit,
			dashboard.ChartExpenseStructure,
			dashboard.ChartCash,
			dashboard.ChartBalance,
		} {
			c, err := d.Chart(name)
			if err != nil {
				t.Fatal(err)
			}
			out, err := Bytes(c, Size{})
			if err != nil {
				t.Fatalf("%s (%s): render: %v", name, sel, err)
			}
			if !strings.Contains(string(out), "<svg") {
				t.Fatalf("%s (%s): output is not svg: %.80s", name, sel, out)
			}
		}
	}
}

func TestSVGHeatmapUnsupported(t *testing.T) {
	c, _ := demoDashboard(t, core.AllMonths).Chart(dashboard.ChartProfitability)
	if _, err := Bytes(c, Size{}); !errors.Is(err, core.ErrUnsupportedChart) {
		t.Fatalf("expected ErrUnsupportedChart, got %v", err)
	}
}

func TestSVGNegativeBars(t *testing.T) {
	c := dashboard.Chart{
		Kind:   dashboard.KindBar,
		Title:  "Profit",
		Labels: []string{"January", "February", "March"},
		Series: []dashboard.Series{{Name: "Profit", Values: []float64{-20, 10, 0}}},
	}
	if _, err := Bytes(c, Size{Width: 400, Height: 200}); err != nil {
		t.Fatalf("render: %v", err)
	}
}

func TestSVGEmptyPie(t *testing.T) {
	c := dashboard.Chart{
		Kind:   dashboard.KindPie,
		Labels: []string{"R&D", "Sales & management", "Other"},
		Series: []dashboard.Series{{Values: []float64{0, 0, -5}}},
	}
	if _, err := Bytes(c, Size{}); !errors.Is(err, ErrNothingToDraw) {
		t.Fatalf("expected ErrNothingToDraw, got %v", err)
	}
}

func TestValueRange(t *testing.T) {
	lo, hi := valueRange(nil)
	if lo != 0 || hi <= 0 {
		t.Fatalf("empty range: %v %v", lo, hi)
	}
	lo, hi = valueRange([]chart.Value{{Value: -10}, {Value: 30}})
	if lo >= -10 || hi <= 30 {
		t.Fatalf("range should pad both ends: %v %v", lo, hi)
	}
}

func TestShortLabel(t *testing.T) {
	cases := map[string]string{"January": "Jan", "Май": "Май", "Сентябрь": "Сен", "": ""}
	for in, want := range cases {
		if got := shortLabel(in); got != want {
			t.Fatalf("shortLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
