package memory

import (
	"context"
	"fmt"
	"sync"

	"findash/internal/core"
	ports "findash/internal/sheets"
)

// Store keeps a table in memory. It serves the built-in demo data and
// receives tables in tests.
type Store struct {
	mu    sync.Mutex
	data  core.TableData
	saves int
}

var (
	_ ports.TableReader = (*Store)(nil)
	_ ports.TableWriter = (*Store)(nil)
)

func New(data core.TableData) *Store {
	return &Store{data: data}
}

// NewDemo returns a store seeded with a plausible year of figures.
func NewDemo() *Store {
	return New(DemoData())
}

// ReadTable builds a fresh snapshot of the stored data.
func (s *Store) ReadTable(_ context.Context) (*core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.NewTable(s.data)
}

// SaveTable replaces the stored data with t and returns a synthetic reference.
func (s *Store) SaveTable(_ context.Context, t *core.Table) (string, error) {
	if t == nil {
		return "", fmt.Errorf("nil table")
	}
	data := core.TableData{
		Source: t.Source(),
		Rows:   make(map[core.Category]core.Row, len(core.Categories)),
	}
	for _, c := range core.Categories {
		values, err := t.Row(c)
		if err != nil {
			return "", err
		}
		row := core.Row{Values: values}
		row.Total, row.HasTotal = t.YearTotal(c)
		data.Rows[c] = row
	}
	if t.BalanceMonths() > 0 {
		data.Balance = make(map[core.BalanceItem][]float64, len(core.BalanceItems))
		for _, item := range core.BalanceItems {
			if values, ok := t.Balance(item); ok {
				data.Balance[item] = values
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.saves++
	return fmt.Sprintf("mem:%d", s.saves), nil
}

// DemoData is the demo year: profit is income minus expenses and other
// expenses stay positive every month.
func DemoData() core.TableData {
	income := core.MonthlySeries{100, 120, 130, 140, 150, 160, 170, 180, 190, 200, 210, 220}
	expenses := core.MonthlySeries{80, 90, 95, 100, 105, 110, 115, 120, 125, 130, 135, 140}
	var profit core.MonthlySeries
	for m := range profit {
		profit[m] = income[m] - expenses[m]
	}
	cashStart := core.MonthlySeries{500, 520, 550, 585, 625, 670, 720, 775, 835, 900, 970, 1045}
	var cashEnd core.MonthlySeries
	for m := range cashEnd {
		if m+1 < core.MonthsInYear {
			cashEnd[m] = cashStart[m+1]
		} else {
			cashEnd[m] = 1125
		}
	}

	row := func(values core.MonthlySeries) core.Row {
		return core.Row{Values: values, Total: core.Totals(values.Slice()), HasTotal: true}
	}
	return core.TableData{
		Source: "demo",
		Rows: map[core.Category]core.Row{
			core.Income:          row(income),
			core.Expenses:        row(expenses),
			core.Profit:          row(profit),
			core.Profitability:   {Values: core.MonthlySeries{5, 6, 4, 6.5, 7, 7.5, 8, 8.2, 8.5, 9, 9.3, 9.6}},
			core.CashStart:       {Values: cashStart},
			core.CashEnd:         {Values: cashEnd},
			core.RnD:             row(core.MonthlySeries{20, 22, 25, 25, 26, 28, 30, 30, 32, 33, 35, 36}),
			core.SalesManagement: row(core.MonthlySeries{30, 33, 35, 38, 40, 42, 44, 46, 48, 50, 52, 54}),
		},
		Balance: map[core.BalanceItem][]float64{
			core.Cash:          {520, 550, 585, 625, 670},
			core.Inventory:     {200, 210, 190, 205, 215},
			core.FinishedGoods: {80, 85, 90, 70, 95},
		},
	}
}
