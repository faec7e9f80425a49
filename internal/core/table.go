package core

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Category names a row of monthly figures in the source table.
type Category string

const (
	Income          Category = "Income"
	Expenses        Category = "Expenses"
	Profit          Category = "Profit"
	Profitability   Category = "Profitability" // percent, precomputed in the source
	CashStart       Category = "CashStart"
	CashEnd         Category = "CashEnd"
	RnD             Category = "RnD"
	SalesManagement Category = "SalesManagement"
)

// Categories lists every category a table must carry.
var Categories = []Category{
	Income, Expenses, Profit, Profitability,
	CashStart, CashEnd, RnD, SalesManagement,
}

// BalanceItem names a row of the optional balance block.
type BalanceItem string

const (
	Cash          BalanceItem = "Cash"
	Inventory     BalanceItem = "Inventory"
	FinishedGoods BalanceItem = "FinishedGoods"
)

// BalanceItems lists the balance rows in display order.
var BalanceItems = []BalanceItem{Cash, Inventory, FinishedGoods}

var (
	ErrMissingCategory  = errors.New("missing category")
	ErrMalformedRow     = errors.New("malformed row")
	ErrInvalidSelection = errors.New("invalid month selection")
	ErrInvalidBalance   = errors.New("invalid balance block")
	ErrUnknownChart     = errors.New("unknown chart")
	ErrUnsupportedChart = errors.New("unsupported chart type for svg")
)

// Row is one category: twelve monthly values plus the optional year-total cell.
type Row struct {
	Values   MonthlySeries
	Total    float64
	HasTotal bool
}

// TableData is the raw input to NewTable.
type TableData struct {
	Source  string
	Rows    map[Category]Row
	Balance map[BalanceItem][]float64
}

var snapshotSeq atomic.Uint64

// Table is an immutable snapshot of the monthly figures. Reloads build a new Table.
type Table struct {
	source        string
	loadedAt      time.Time
	seq           uint64
	rows          map[Category]Row
	balance       map[BalanceItem][]float64
	balanceMonths int
}

// NewTable validates d and copies it into an immutable Table.
func NewTable(d TableData) (*Table, error) {
	t := &Table{
		source:   d.Source,
		loadedAt: time.Now(),
		seq:      snapshotSeq.Add(1),
		rows:     make(map[Category]Row, len(d.Rows)),
	}
	for _, c := range Categories {
		r, ok := d.Rows[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingCategory, c)
		}
		t.rows[c] = r
	}

	if len(d.Balance) > 0 {
		t.balance = make(map[BalanceItem][]float64, len(d.Balance))
		n := -1
		for item, values := range d.Balance {
			if n == -1 {
				n = len(values)
			}
			if len(values) != n {
				return nil, fmt.Errorf("%w: %s has %d months, expected %d", ErrInvalidBalance, item, len(values), n)
			}
			t.balance[item] = append([]float64(nil), values...)
		}
		if n < 1 || n > MonthsInYear {
			return nil, fmt.Errorf("%w: %d months, must be between 1 and %d", ErrInvalidBalance, n, MonthsInYear)
		}
		t.balanceMonths = n
	}
	return t, nil
}

// Row returns the twelve monthly values of c.
func (t *Table) Row(c Category) (MonthlySeries, error) {
	r, ok := t.rows[c]
	if !ok {
		return MonthlySeries{}, fmt.Errorf("%w: %s", ErrMissingCategory, c)
	}
	return r.Values, nil
}

// series is Row for categories NewTable guarantees to exist.
func (t *Table) series(c Category) MonthlySeries {
	return t.rows[c].Values
}

// YearTotal returns the year-total column of c when the source had one.
func (t *Table) YearTotal(c Category) (float64, bool) {
	r, ok := t.rows[c]
	if !ok || !r.HasTotal {
		return 0, false
	}
	return r.Total, true
}

// Other is Expenses minus R&D minus Sales/Management, month by month.
func (t *Table) Other() MonthlySeries {
	return DeriveOther(t.series(Expenses), t.series(RnD), t.series(SalesManagement))
}

// Balance returns a copy of the balance row for item and the number of months it covers.
func (t *Table) Balance(item BalanceItem) ([]float64, bool) {
	values, ok := t.balance[item]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), values...), true
}

// BalanceMonths is the number of months covered by the balance block, 0 when absent.
func (t *Table) BalanceMonths() int { return t.balanceMonths }

// Source describes where the table was loaded from.
func (t *Table) Source() string { return t.source }

// LoadedAt is when the table was built.
func (t *Table) LoadedAt() time.Time { return t.loadedAt }

// Version identifies this snapshot; it changes on every reload.
func (t *Table) Version() string {
	return fmt.Sprintf("%d-%d", t.loadedAt.Unix(), t.seq)
}

// Warnings reports data-quality issues that do not prevent rendering, month
// issues first in month order, then year-total mismatches.
func (t *Table) Warnings() []string {
	var out []string
	other := t.Other()
	for m, v := range other {
		if v < 0 {
			out = append(out, fmt.Sprintf("month %d: other expenses are negative (%.2f)", m+1, v))
		}
	}
	if total, ok := t.YearTotal(Income); ok && !closeEnough(total, Totals(t.series(Income).Slice())) {
		out = append(out, fmt.Sprintf("income year total %.2f does not match the monthly sum", total))
	}
	if total, ok := t.YearTotal(Expenses); ok && !closeEnough(total, Totals(t.series(Expenses).Slice())) {
		out = append(out, fmt.Sprintf("expenses year total %.2f does not match the monthly sum", total))
	}
	return out
}

func closeEnough(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 0.005
}
