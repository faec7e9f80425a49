package http

import (
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready once a table snapshot is loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	t := s.dash.Table()
	if t == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"checks": map[string]string{"table": "not loaded"},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]any{
			"table": map[string]any{
				"source":    t.Source(),
				"version":   t.Version(),
				"loaded_at": t.LoadedAt().Format(time.RFC3339),
				"warnings":  len(t.Warnings()),
			},
			"svg_cache": s.svgCache.Stats(),
		},
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	cacheStats := s.svgCache.Stats()
	limitMetrics := s.reloadLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	loaded, age := 0, 0.0
	if t := s.dash.Table(); t != nil {
		loaded = 1
		age = time.Since(t.LoadedAt()).Seconds()
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_request_duration_avg_microseconds", "gauge", "Average request duration", traceMetrics.AverageResponseTime)
	metric("svg_cache_hits_total", "counter", "SVG cache hits", cacheStats.Hits)
	metric("svg_cache_misses_total", "counter", "SVG cache misses", cacheStats.Misses)
	metric("svg_cache_evictions_total", "counter", "SVGs evicted to stay within capacity", cacheStats.Evictions)
	metric("svg_cache_entries", "gauge", "Current SVG cache entries", cacheStats.Size)
	metric("reload_rate_limit_hits_total", "counter", "Rejected manual reloads", limitMetrics.TotalHits)
	metric("reload_rate_limit_clients", "gauge", "Clients tracked by the reload limiter", limitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("table_loaded", "gauge", "1 when a table snapshot is loaded", loaded)
	metric("table_age_seconds", "gauge", "Seconds since the current table was loaded", fmt.Sprintf("%.0f", age))
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.started).Seconds()))
}
