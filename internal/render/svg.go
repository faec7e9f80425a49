// Package render draws dashboard charts as SVG with go-chart.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"findash/internal/core"
	"findash/internal/dashboard"
)

const (
	defaultWidth  = 800
	defaultHeight = 400
)

// ErrNothingToDraw is returned when a chart has no positive or plottable values.
var ErrNothingToDraw = errors.New("nothing to draw")

// Size of the rendered image in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = defaultWidth
	}
	if s.Height <= 0 {
		s.Height = defaultHeight
	}
	return s
}

// SVG renders c into w. Heatmaps are not supported.
func SVG(w io.Writer, c dashboard.Chart, size Size) error {
	size = size.orDefault()
	switch c.Kind {
	case dashboard.KindLine:
		if len(c.Labels) < 2 {
			// go-chart needs two x values for a line.
			return renderBar(w, c, size)
		}
		return renderLine(w, c, size)
	case dashboard.KindBar:
		return renderBar(w, c, size)
	case dashboard.KindPie:
		return renderPie(w, c, size)
	default:
		return fmt.Errorf("%w: %s", core.ErrUnsupportedChart, c.Kind)
	}
}

// Bytes is SVG into a fresh buffer.
func Bytes(c dashboard.Chart, size Size) ([]byte, error) {
	var buf bytes.Buffer
	if err := SVG(&buf, c, size); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func color(hex string) drawing.Color {
	if hex == "" {
		return chart.ColorBlue
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func renderLine(w io.Writer, c dashboard.Chart, size Size) error {
	xs := make([]float64, len(c.Labels))
	ticks := make([]chart.Tick, len(c.Labels))
	for i, l := range c.Labels {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: shortLabel(l)}
	}

	ch := chart.Chart{
		Title:  c.Title,
		Width:  size.Width,
		Height: size.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{Name: c.Unit, ValueFormatter: valueFormatter(c.Unit)},
	}
	for _, s := range c.Series {
		col := color(s.Color)
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: s.Values,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    3,
			},
		})
	}
	if len(ch.Series) == 0 {
		return ErrNothingToDraw
	}
	if len(ch.Series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.SVG, w)
}

// renderBar draws one bar per value. Several series are interleaved month
// by month, since go-chart has no grouped bar chart.
func renderBar(w io.Writer, c dashboard.Chart, size Size) error {
	var bars []chart.Value
	for i, l := range c.Labels {
		for _, s := range c.Series {
			if i >= len(s.Values) {
				continue
			}
			label := shortLabel(l)
			if len(c.Series) > 1 {
				label = s.Name
				if len(c.Labels) > 1 {
					label = shortLabel(l) + " " + lastWord(s.Name)
				}
			}
			col := color(s.Color)
			bars = append(bars, chart.Value{
				Label: label,
				Value: s.Values[i],
				Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
			})
		}
	}
	if len(bars) == 0 {
		return ErrNothingToDraw
	}

	lo, hi := valueRange(bars)
	barWidth := (size.Width - 100) / (len(bars) * 2)
	if barWidth < 8 {
		barWidth = 8
	}
	if barWidth > 60 {
		barWidth = 60
	}
	bc := chart.BarChart{
		Title:  c.Title,
		Width:  size.Width,
		Height: size.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth:     barWidth,
		Bars:         bars,
		UseBaseValue: lo < 0,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: valueFormatter(c.Unit),
		},
	}
	return bc.Render(chart.SVG, w)
}

func renderPie(w io.Writer, c dashboard.Chart, size Size) error {
	if len(c.Series) == 0 {
		return ErrNothingToDraw
	}
	s := c.Series[0]
	var values []chart.Value
	for i, v := range s.Values {
		// Negative or empty slices cannot be drawn.
		if v <= 0 || i >= len(c.Labels) {
			continue
		}
		val := chart.Value{Label: c.Labels[i], Value: v}
		if i < len(s.Colors) {
			col := color(s.Colors[i])
			val.Style = chart.Style{FillColor: col, StrokeColor: drawing.ColorWhite, StrokeWidth: 2}
		}
		values = append(values, val)
	}
	if len(values) == 0 {
		return ErrNothingToDraw
	}
	pc := chart.PieChart{
		Title:  c.Title,
		Width:  size.Width,
		Height: size.Height,
		Values: values,
	}
	return pc.Render(chart.SVG, w)
}

// valueRange always includes zero so bars grow from the axis.
func valueRange(bars []chart.Value) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		if b.Value < lo {
			lo = b.Value
		}
		if b.Value > hi {
			hi = b.Value
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	return lo, hi + pad
}

func valueFormatter(unit string) chart.ValueFormatter {
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return fmt.Sprint(v)
		}
		if unit == "%" {
			return fmt.Sprintf("%.1f%%", f)
		}
		return fmt.Sprintf("%.0f", f)
	}
}

// shortLabel abbreviates month names to three letters.
func shortLabel(l string) string {
	r := []rune(l)
	if len(r) <= 3 {
		return l
	}
	return string(r[:3])
}

func lastWord(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[len(fields)-1]
}
