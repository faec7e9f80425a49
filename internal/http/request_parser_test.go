package http

import (
	"errors"
	"net/http/httptest"
	"testing"

	"findash/internal/core"
	"findash/internal/render"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		query   string
		want    string
		wantErr bool
	}{
		{"", "all", false},
		{"?month=all", "all", false},
		{"?month=ALL", "all", false},
		{"?month=0", "0", false},
		{"?month=11", "11", false},
		{"?month=%2011%20", "11", false},
		{"?month=12", "", true},
		{"?month=-1", "", true},
		{"?month=jan", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			sel, err := parseSelection(httptest.NewRequest("GET", "/api/dashboard"+tt.query, nil))
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidSelection) {
					t.Fatalf("expected ErrInvalidSelection, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sel.String() != tt.want {
				t.Errorf("got %q, want %q", sel, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    render.Size
		wantErr bool
	}{
		{"defaults", "", render.Size{}, false},
		{"explicit", "?width=640&height=480", render.Size{Width: 640, Height: 480}, false},
		{"clamped low", "?width=10", render.Size{Width: 100}, false},
		{"clamped high", "?height=99999", render.Size{Height: 2000}, false},
		{"not a number", "?width=big", render.Size{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSize(httptest.NewRequest("GET", "/api/charts/profit.svg"+tt.query, nil))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChartName(t *testing.T) {
	tests := map[string]struct {
		name string
		ok   bool
	}{
		"profit.svg": {"profit", true},
		"cash.svg":   {"cash", true},
		".svg":       {"", false},
		"profit":     {"profit", false},
		"profit.png": {"profit.png", false},
	}
	for file, want := range tests {
		name, ok := chartName(file)
		if ok != want.ok || (ok && name != want.name) {
			t.Errorf("chartName(%q) = %q, %v", file, name, ok)
		}
	}
}

func TestSVGCacheKey(t *testing.T) {
	month, _ := core.Month(4)
	got := svgCacheKey("profit", month, "17-3", render.Size{Width: 800, Height: 400})
	if got != "profit|4|17-3|800x400" {
		t.Fatalf("unexpected key %q", got)
	}
	if svgCacheKey("profit", core.AllMonths, "17-3", render.Size{}) == got {
		t.Fatal("keys for different selections must differ")
	}
	if v := svgKeyVersion(got); v != "17-3" {
		t.Fatalf("svgKeyVersion(%q) = %q", got, v)
	}
	if v := svgKeyVersion("garbage"); v != "" {
		t.Fatalf("svgKeyVersion of a foreign key = %q", v)
	}
}
