package sheets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"findash/internal/core"
)

// Workbook holds raw cell text keyed by sheet name, rows then columns.
type Workbook map[string][][]string

var errRowNotFound = errors.New("row not found")

// ParseWorkbook extracts the monthly figures described by layout from wb.
func ParseWorkbook(wb Workbook, layout Layout, source string) (*core.Table, error) {
	data := core.TableData{
		Source: source,
		Rows:   make(map[core.Category]core.Row, len(core.Categories)),
	}

	for _, c := range core.Categories {
		ref := layout.Rows[c]
		cells, err := findRow(wb, layout, ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (%s): %v", core.ErrMissingCategory, c, ref, err)
		}
		row, err := parseMonthlyRow(cells, layout, ref)
		if err != nil {
			return nil, err
		}
		data.Rows[c] = row
	}

	balance, err := parseBalance(wb, layout)
	if err != nil {
		return nil, err
	}
	data.Balance = balance

	return core.NewTable(data)
}

func findRow(wb Workbook, layout Layout, ref RowRef) ([]string, error) {
	rows, ok := wb[ref.Sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", ref.Sheet)
	}
	if ref.Label == "" {
		if ref.Row < 1 || ref.Row > len(rows) {
			return nil, fmt.Errorf("%w: row %d out of range (%d rows)", errRowNotFound, ref.Row, len(rows))
		}
		return rows[ref.Row-1], nil
	}
	want := normalizeLabel(ref.Label)
	for _, cells := range rows {
		if layout.LabelColumn < len(cells) && normalizeLabel(cells[layout.LabelColumn]) == want {
			return cells, nil
		}
	}
	return nil, errRowNotFound
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func parseMonthlyRow(cells []string, layout Layout, ref RowRef) (core.Row, error) {
	var row core.Row
	for m := 0; m < core.MonthsInYear; m++ {
		v, err := parseCell(cells, layout.FirstMonthColumn+m)
		if err != nil {
			return core.Row{}, malformed(ref, layout.FirstMonthColumn+m, err)
		}
		row.Values[m] = v
	}

	totalCol := layout.FirstMonthColumn + core.MonthsInYear
	if totalCol < len(cells) && strings.TrimSpace(cells[totalCol]) != "" {
		v, err := core.ParseAmount(cells[totalCol])
		if err != nil {
			return core.Row{}, malformed(ref, totalCol, err)
		}
		row.Total, row.HasTotal = v, true
	}
	return row, nil
}

// parseCell treats missing and blank cells as zero.
func parseCell(cells []string, col int) (float64, error) {
	if col >= len(cells) {
		return 0, nil
	}
	raw := strings.TrimSpace(cells[col])
	if raw == "" || raw == "-" {
		return 0, nil
	}
	return core.ParseAmount(raw)
}

func malformed(ref RowRef, col int, cause error) error {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		name = fmt.Sprintf("#%d", col+1)
	}
	return fmt.Errorf("%w: %s column %s: %v", core.ErrMalformedRow, ref, name, cause)
}

func parseBalance(wb Workbook, layout Layout) (map[core.BalanceItem][]float64, error) {
	bl := layout.Balance
	if bl.Months == 0 || len(bl.Rows) == 0 {
		return nil, nil
	}
	out := make(map[core.BalanceItem][]float64, len(bl.Rows))
	for _, item := range core.BalanceItems {
		ref, ok := bl.Rows[item]
		if !ok {
			continue
		}
		cells, err := findRow(wb, layout, ref)
		if err != nil {
			if bl.Optional {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %s (%s): %v", core.ErrInvalidBalance, item, ref, err)
		}
		values := make([]float64, bl.Months)
		for m := range values {
			v, err := parseCell(cells, layout.FirstMonthColumn+m)
			if err != nil {
				return nil, malformed(ref, layout.FirstMonthColumn+m, err)
			}
			values[m] = v
		}
		out[item] = values
	}
	return out, nil
}
