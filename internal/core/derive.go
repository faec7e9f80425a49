// Package core holds the monthly financial figures and the pure functions
// that derive the dashboard series from them.
package core

import "github.com/shopspring/decimal"

// DefaultTrendWindow is the number of leading months used by ShortTermTrend.
const DefaultTrendWindow = 3

// Direction of a short-term trend.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

// Arrow is the indicator shown next to the trend value.
func (d Direction) Arrow() string {
	switch d {
	case Up:
		return "▲"
	case Down:
		return "▼"
	default:
		return "▬"
	}
}

// Trend is the leading window of a series and the change between its 2nd and 3rd points.
type Trend struct {
	Points    []float64
	Change    float64 // percent
	Direction Direction
}

// DeriveOther returns expenses - rnd - salesManagement for every month.
// Negative results are returned as is.
func DeriveOther(expenses, rnd, salesManagement MonthlySeries) MonthlySeries {
	var out MonthlySeries
	for m := range out {
		out[m] = expenses[m] - rnd[m] - salesManagement[m]
	}
	return out
}

// SelectRange returns series unchanged for AllMonths, or the one-element
// slice [series[i]] for month i. An index past the end yields an empty slice.
func SelectRange(series []float64, sel Selection) []float64 {
	i, single := sel.Index()
	if !single {
		return series
	}
	if i >= len(series) {
		return []float64{}
	}
	return []float64{series[i]}
}

// PercentChange is (curr-prev)/prev*100, defined as 0 when prev is 0.
func PercentChange(curr, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (curr - prev) / prev * 100
}

// Totals sums the series in decimal arithmetic so that cent-valued cells do not drift.
func Totals(series []float64) float64 {
	sum := decimal.Zero
	for _, v := range series {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	f, _ := sum.Float64()
	return f
}

// ShortTermTrend takes the first n points of series (DefaultTrendWindow when
// n <= 0) and the percent change from the 2nd to the 3rd of them.
// With fewer than three points the change is 0 and the direction Flat.
func ShortTermTrend(series []float64, n int) Trend {
	if n <= 0 {
		n = DefaultTrendWindow
	}
	if n > len(series) {
		n = len(series)
	}
	t := Trend{Points: append([]float64(nil), series[:n]...), Direction: Flat}
	if n < 3 {
		return t
	}
	t.Change = PercentChange(t.Points[2], t.Points[1])
	switch {
	case t.Change > 0:
		t.Direction = Up
	case t.Change < 0:
		t.Direction = Down
	}
	return t
}
