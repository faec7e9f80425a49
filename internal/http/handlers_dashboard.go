package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"findash/internal/core"
	"findash/internal/dashboard"
	applog "findash/internal/log"
	"findash/internal/render"
)

type monthOption struct {
	Value    string
	Label    string
	Selected bool
}

type chartSlot struct {
	Name   string
	Title  string
	SVGURL string
}

type indexData struct {
	Loaded    bool
	Selection string
	Options   []monthOption
	Currency  string
	Source    string
	LoadedAt  string
	KPIs      []dashboard.KPI
	Trend     dashboard.TrendKPI
	Charts    []chartSlot
	Warnings  []string
}

// handleIndex renders the page shell with the dropdown and the first KPIs.
// Charts are drawn in the browser from /api/dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	sel, err := parseSelection(r)
	if err != nil {
		logger.WarnContext(ctx, "Invalid month parameter, showing all months", applog.FieldError, err)
		sel = core.AllMonths
	}

	opts := s.dash.Options()
	data := indexData{Selection: sel.String(), Currency: opts.Currency}
	data.Options = append(data.Options, monthOption{Value: "all", Label: "All months", Selected: sel.IsAll()})
	for i, label := range core.MonthLabels(opts.Locale) {
		m, _ := core.Month(i)
		data.Options = append(data.Options, monthOption{Value: m.String(), Label: label, Selected: m == sel})
	}

	status := http.StatusOK
	d, t, err := s.dash.Dashboard(sel)
	switch {
	case err == nil:
		data.Loaded = true
		data.Source = t.Source()
		data.LoadedAt = t.LoadedAt().Format(time.DateTime)
		data.KPIs = []dashboard.KPI{d.Income, d.Expenses, d.Profit}
		data.Trend = d.Trend
		data.Warnings = t.Warnings()
		for _, c := range d.Charts {
			slot := chartSlot{Name: c.Name, Title: c.Title}
			if svgSupported(c.Kind) {
				slot.SVGURL = svgURL(c.Name, sel)
			}
			data.Charts = append(data.Charts, slot)
		}
	case errors.Is(err, dashboard.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	default:
		logger.ErrorContext(ctx, "Dashboard build failed", applog.FieldError, err)
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		logger.ErrorContext(ctx, "Dashboard template execution failed", applog.FieldError, err, "template", "dashboard.html")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// handleDashboard answers the dropdown: KPIs, trend and every figure for the selection.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sel, err := parseSelection(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	d, t, err := s.dash.Dashboard(sel)
	if err != nil {
		if writeDomainError(w, err) >= http.StatusInternalServerError {
			applog.FromContext(ctx).ErrorContext(ctx, "Dashboard build failed",
				applog.FieldSelection, sel.String(), applog.FieldError, err)
		}
		return
	}

	_ = NewJSONResponse().
		Header("Cache-Control", "no-cache").
		Header("ETag", etag(t.Version(), "dashboard", sel.String())).
		Body(newDashboardPayload(d, t)).
		Write(w)
}

// handleChartSVG renders one chart with go-chart, cached per table version.
func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	name, ok := chartName(r.PathValue("file"))
	if !ok {
		writeError(w, http.StatusNotFound, "chart exports end in .svg")
		return
	}
	sel, err := parseSelection(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	size, err := parseSize(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := s.dash.Table()
	if t == nil {
		writeDomainError(w, dashboard.ErrNotLoaded)
		return
	}
	key := svgCacheKey(name, sel, t.Version(), size)
	tag := svgETag(key)
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	svg, hit := s.svgCache.Get(key)
	if !hit {
		d, snap, err := s.dash.Dashboard(sel)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		c, err := d.Chart(name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		start := time.Now()
		svg, err = render.Bytes(c, size)
		if err != nil {
			if writeDomainError(w, err) >= http.StatusInternalServerError {
				logger.ErrorContext(ctx, "SVG render failed",
					applog.FieldOperation, applog.OpRender,
					applog.FieldChart, name,
					applog.FieldError, err)
			}
			return
		}
		// The snapshot may have been swapped since Table(); key by what was drawn.
		key = svgCacheKey(name, sel, snap.Version(), size)
		tag = svgETag(key)
		s.svgCache.Set(key, svg)
		logger.DebugContext(ctx, "SVG rendered",
			applog.FieldChart, name,
			applog.FieldSelection, sel.String(),
			applog.FieldDuration, time.Since(start).Milliseconds(),
			"bytes", len(svg))
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", tag)
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.svg"`)
	}
	_, _ = w.Write(svg)
}

type reloadResponse struct {
	Status   string    `json:"status"`
	Source   string    `json:"source"`
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Warnings []string  `json:"warnings,omitempty"`
}

// handleReload re-reads the source. On failure the previous table keeps
// serving and the client gets 502.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.dash.Reload(ctx, "http")
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Manual reload failed", applog.FieldError, err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	_ = NewJSONResponse().NoStore().Body(reloadResponse{
		Status:   "reloaded",
		Source:   t.Source(),
		Version:  t.Version(),
		LoadedAt: t.LoadedAt(),
		Warnings: t.Warnings(),
	}).Write(w)
}

func etag(version, name, sel string) string {
	return `"` + version + "-" + name + "-" + sel + `"`
}

// svgETag quotes the cache key, so size and table version are both part of it.
func svgETag(key string) string {
	return `"` + key + `"`
}
