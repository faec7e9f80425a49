package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"findash/internal/core"
	"findash/internal/render"
)

const (
	minSVGSide = 100
	maxSVGSide = 2000
)

// parseSelection reads the month query parameter: "", "all" or 0..11.
func parseSelection(r *http.Request) (core.Selection, error) {
	return core.ParseSelection(r.URL.Query().Get("month"))
}

// parseSize reads optional width and height for SVG exports, clamped to a
// sane range. Non-numeric values are a selection-style 400.
func parseSize(r *http.Request) (render.Size, error) {
	var size render.Size
	for _, p := range []struct {
		name string
		dst  *int
	}{{"width", &size.Width}, {"height", &size.Height}} {
		v := strings.TrimSpace(r.URL.Query().Get(p.name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return render.Size{}, fmt.Errorf("invalid %s %q", p.name, v)
		}
		*p.dst = min(max(n, minSVGSide), maxSVGSide)
	}
	return size, nil
}

// chartName strips the .svg suffix from the {file} path segment.
func chartName(file string) (string, bool) {
	name, ok := strings.CutSuffix(file, ".svg")
	return name, ok && name != ""
}
