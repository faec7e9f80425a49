package http

import (
	"fmt"
	"strings"
	"time"

	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/render"
)

type dashboardPayload struct {
	Selection string             `json:"selection"`
	Months    []string           `json:"months"`
	Source    string             `json:"source"`
	Version   string             `json:"version"`
	LoadedAt  time.Time          `json:"loaded_at"`
	KPIs      []dashboard.KPI    `json:"kpis"`
	Trend     dashboard.TrendKPI `json:"trend"`
	Figures   []figurePayload    `json:"figures"`
	Warnings  []string           `json:"warnings,omitempty"`
}

type figurePayload struct {
	Name   string           `json:"name"`
	Kind   dashboard.Kind   `json:"kind"`
	Title  string           `json:"title"`
	SVGURL string           `json:"svg_url,omitempty"`
	Figure dashboard.Figure `json:"figure"`
}

func newDashboardPayload(d *dashboard.Dashboard, t *core.Table) dashboardPayload {
	p := dashboardPayload{
		Selection: d.Selection.String(),
		Months:    d.Months,
		Source:    t.Source(),
		Version:   t.Version(),
		LoadedAt:  t.LoadedAt(),
		KPIs:      []dashboard.KPI{d.Income, d.Expenses, d.Profit},
		Trend:     d.Trend,
		Warnings:  t.Warnings(),
	}
	for _, c := range d.Charts {
		f := figurePayload{Name: c.Name, Kind: c.Kind, Title: c.Title, Figure: c.Figure()}
		if svgSupported(c.Kind) {
			f.SVGURL = svgURL(c.Name, d.Selection)
		}
		p.Figures = append(p.Figures, f)
	}
	return p
}

func svgSupported(k dashboard.Kind) bool {
	return k != dashboard.KindHeatmap
}

func svgURL(name string, sel core.Selection) string {
	return "/api/charts/" + name + ".svg?month=" + sel.String()
}

// svgCacheKey identifies one rendered image: chart, selection, table version and size.
func svgCacheKey(name string, sel core.Selection, version string, size render.Size) string {
	return fmt.Sprintf("%s|%s|%s|%dx%d", name, sel, version, size.Width, size.Height)
}

func svgKeyVersion(key string) string {
	parts := strings.SplitN(key, "|", 4)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
