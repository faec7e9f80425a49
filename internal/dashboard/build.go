// Package dashboard turns a table snapshot and a month selection into the
// KPIs and figures shown on the page.
package dashboard

import (
	"errors"
	"fmt"

	"findash/internal/core"
)

// ErrNotLoaded is returned while no table has been loaded.
var ErrNotLoaded = errors.New("no table loaded")

const (
	colorIncome    = "#2ca02c"
	colorExpenses  = "#d62728"
	colorProfit    = "#1f77b4"
	colorRnD       = "#9467bd"
	colorSales     = "#ff7f0e"
	colorOther     = "#7f7f7f"
	colorCashStart = "#17becf"
	colorCashEnd   = "#1f77b4"
)

var balanceColors = map[core.BalanceItem]string{
	core.Cash:          "#1f77b4",
	core.Inventory:     "#ff7f0e",
	core.FinishedGoods: "#2ca02c",
}

var balanceNames = map[core.BalanceItem]string{
	core.Cash:          "Cash",
	core.Inventory:     "Inventory",
	core.FinishedGoods: "Finished goods",
}

// Options controls presentation only.
type Options struct {
	Locale      string
	Currency    string
	TrendWindow int
}

// KPI is one headline number.
type KPI struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

// TrendKPI is the short-term profitability trend card.
type TrendKPI struct {
	Label     string         `json:"label"`
	Points    []float64      `json:"points"`
	Change    float64        `json:"change"`
	Formatted string         `json:"formatted"`
	Direction core.Direction `json:"direction"`
	Arrow     string         `json:"arrow"`
}

// Dashboard is everything the page shows for one selection.
type Dashboard struct {
	Selection core.Selection
	Months    []string
	Income    KPI
	Expenses  KPI
	Profit    KPI
	Trend     TrendKPI
	Charts    []Chart
}

// Chart returns the chart called name.
func (d *Dashboard) Chart(name string) (Chart, error) {
	for _, c := range d.Charts {
		if c.Name == name {
			return c, nil
		}
	}
	return Chart{}, fmt.Errorf("%w: %q", core.ErrUnknownChart, name)
}

// Build derives the dashboard for sel from t. It is pure: the same table
// and selection always give the same result.
func Build(t *core.Table, sel core.Selection, opts Options) (*Dashboard, error) {
	if t == nil {
		return nil, ErrNotLoaded
	}
	labels := core.MonthLabels(opts.Locale)
	selected := selectLabels(labels, sel)

	rows := make(map[core.Category][]float64, len(core.Categories))
	for _, c := range core.Categories {
		s, err := t.Row(c)
		if err != nil {
			return nil, err
		}
		rows[c] = core.SelectRange(s.Slice(), sel)
	}
	other := core.SelectRange(t.Other().Slice(), sel)

	d := &Dashboard{
		Selection: sel,
		Months:    selected,
		Income:    moneyKPI("Income", rows[core.Income], opts.Currency),
		Expenses:  moneyKPI("Expenses", rows[core.Expenses], opts.Currency),
		Profit:    moneyKPI("Profit", rows[core.Profit], opts.Currency),
	}

	profitability, _ := t.Row(core.Profitability)
	trend := core.ShortTermTrend(profitability.Slice(), opts.TrendWindow)
	d.Trend = TrendKPI{
		Label:     "Profitability trend",
		Points:    trend.Points,
		Change:    trend.Change,
		Formatted: core.FormatPercent(trend.Change),
		Direction: trend.Direction,
		Arrow:     trend.Direction.Arrow(),
	}

	d.Charts = []Chart{
		{
			Name:   ChartIncomeExpenses,
			Kind:   KindLine,
			Title:  "Income vs expenses",
			Unit:   opts.Currency,
			Labels: selected,
			Series: []Series{
				{Name: "Income", Color: colorIncome, Values: rows[core.Income]},
				{Name: "Expenses", Color: colorExpenses, Values: rows[core.Expenses]},
			},
		},
		{
			Name:   ChartProfit,
			Kind:   KindBar,
			Title:  "Profit",
			Unit:   opts.Currency,
			Labels: selected,
			Series: []Series{{Name: "Profit", Color: colorProfit, Values: rows[core.Profit]}},
		},
		{
			Name:   ChartExpenseStructure,
			Kind:   KindPie,
			Title:  "Expense structure",
			Unit:   opts.Currency,
			Labels: []string{"R&D", "Sales & management", "Other"},
			Series: []Series{{
				Name:   "Expenses",
				Colors: []string{colorRnD, colorSales, colorOther},
				Values: []float64{
					core.Totals(rows[core.RnD]),
					core.Totals(rows[core.SalesManagement]),
					core.Totals(other),
				},
			}},
		},
		{
			Name:   ChartCash,
			Kind:   KindBar,
			Title:  "Cash at start and end of month",
			Unit:   opts.Currency,
			Labels: selected,
			Series: []Series{
				{Name: "Cash at start", Color: colorCashStart, Values: rows[core.CashStart]},
				{Name: "Cash at end", Color: colorCashEnd, Values: rows[core.CashEnd]},
			},
		},
		{
			Name:   ChartProfitability,
			Kind:   KindHeatmap,
			Title:  "Profitability, %",
			Unit:   "%",
			Labels: selected,
			Series: []Series{{Name: "Profitability, %", Values: rows[core.Profitability]}},
		},
	}
	if c, ok := balanceChart(t, labels, opts.Currency); ok {
		d.Charts = append(d.Charts, c)
	}
	return d, nil
}

// balanceChart covers the months of the balance block and ignores the selection.
func balanceChart(t *core.Table, labels []string, currency string) (Chart, bool) {
	n := t.BalanceMonths()
	if n == 0 {
		return Chart{}, false
	}
	c := Chart{
		Name:   ChartBalance,
		Kind:   KindLine,
		Title:  "Balance",
		Unit:   currency,
		Labels: labels[:n],
	}
	for _, item := range core.BalanceItems {
		values, ok := t.Balance(item)
		if !ok {
			continue
		}
		c.Series = append(c.Series, Series{
			Name:   balanceNames[item],
			Color:  balanceColors[item],
			Values: values,
		})
	}
	return c, len(c.Series) > 0
}

func moneyKPI(label string, values []float64, currency string) KPI {
	total := core.Totals(values)
	return KPI{Label: label, Value: total, Formatted: core.FormatAmount(total, currency)}
}

func selectLabels(labels []string, sel core.Selection) []string {
	i, single := sel.Index()
	if !single {
		return labels
	}
	return []string{labels[i]}
}
