package dashboard

// Kind is the chart type of a figure.
type Kind string

const (
	KindLine    Kind = "line"
	KindBar     Kind = "bar"
	KindPie     Kind = "pie"
	KindHeatmap Kind = "heatmap"
)

// Chart names, as used in the JSON payload and in /api/charts/{name}.svg.
const (
	ChartIncomeExpenses   = "income_expenses"
	ChartProfit           = "profit"
	ChartExpenseStructure = "expense_structure"
	ChartCash             = "cash"
	ChartProfitability    = "profitability"
	ChartBalance          = "balance"
)

// ChartNames lists the charts in page order. Balance is present only when
// the table has a balance block.
var ChartNames = []string{
	ChartIncomeExpenses,
	ChartProfit,
	ChartExpenseStructure,
	ChartCash,
	ChartProfitability,
	ChartBalance,
}

// Series is one named run of values. For pie charts Values holds the slices
// and Colors their colors.
type Series struct {
	Name   string
	Color  string
	Colors []string
	Values []float64
}

// Chart is a renderer-neutral description of one figure. Labels are the
// x-axis categories, or slice labels for a pie.
type Chart struct {
	Name   string
	Kind   Kind
	Title  string
	Unit   string
	Labels []string
	Series []Series
}

// Figure is the Plotly.js figure object sent to the browser.
type Figure struct {
	Data   []Trace      `json:"data"`
	Layout FigureLayout `json:"layout"`
}

// Trace is one Plotly trace. X and Y are strings or numbers depending on the trace type.
type Trace struct {
	Type       string      `json:"type"`
	Name       string      `json:"name,omitempty"`
	Mode       string      `json:"mode,omitempty"`
	X          any         `json:"x,omitempty"`
	Y          any         `json:"y,omitempty"`
	Z          [][]float64 `json:"z,omitempty"`
	Labels     []string    `json:"labels,omitempty"`
	Values     []float64   `json:"values,omitempty"`
	Marker     *Marker     `json:"marker,omitempty"`
	Line       *Line       `json:"line,omitempty"`
	Colorscale string      `json:"colorscale,omitempty"`
	Hole       float64     `json:"hole,omitempty"`
	TextInfo   string      `json:"textinfo,omitempty"`
}

type Marker struct {
	Color  string   `json:"color,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

type FigureLayout struct {
	Title   string `json:"title"`
	BarMode string `json:"barmode,omitempty"`
	XAxis   *Axis  `json:"xaxis,omitempty"`
	YAxis   *Axis  `json:"yaxis,omitempty"`
}

type Axis struct {
	Title      string `json:"title,omitempty"`
	TickSuffix string `json:"ticksuffix,omitempty"`
	Type       string `json:"type,omitempty"`
}

// Figure converts the chart to a Plotly figure.
func (c Chart) Figure() Figure {
	f := Figure{Layout: FigureLayout{Title: c.Title}}
	switch c.Kind {
	case KindLine:
		for _, s := range c.Series {
			f.Data = append(f.Data, Trace{
				Type: "scatter",
				Mode: "lines+markers",
				Name: s.Name,
				X:    c.Labels,
				Y:    s.Values,
				Line: &Line{Color: s.Color, Width: 2},
			})
		}
		f.Layout.XAxis = &Axis{Type: "category"}
		f.Layout.YAxis = valueAxis(c.Unit)
	case KindBar:
		for _, s := range c.Series {
			f.Data = append(f.Data, Trace{
				Type:   "bar",
				Name:   s.Name,
				X:      c.Labels,
				Y:      s.Values,
				Marker: &Marker{Color: s.Color},
			})
		}
		if len(c.Series) > 1 {
			f.Layout.BarMode = "group"
		}
		f.Layout.XAxis = &Axis{Type: "category"}
		f.Layout.YAxis = valueAxis(c.Unit)
	case KindPie:
		for _, s := range c.Series {
			f.Data = append(f.Data, Trace{
				Type:     "pie",
				Name:     s.Name,
				Labels:   c.Labels,
				Values:   s.Values,
				Marker:   &Marker{Colors: s.Colors},
				Hole:     0.4,
				TextInfo: "label+percent",
			})
		}
	case KindHeatmap:
		rows := make([]string, len(c.Series))
		z := make([][]float64, len(c.Series))
		for i, s := range c.Series {
			rows[i] = s.Name
			z[i] = s.Values
		}
		f.Data = []Trace{{
			Type:       "heatmap",
			X:          c.Labels,
			Y:          rows,
			Z:          z,
			Colorscale: "RdYlGn",
		}}
		f.Layout.XAxis = &Axis{Type: "category"}
		f.Layout.YAxis = &Axis{Type: "category"}
	}
	return f
}

func valueAxis(unit string) *Axis {
	if unit == "%" {
		return &Axis{TickSuffix: "%"}
	}
	return &Axis{Title: unit}
}
