package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"findash/internal/cache"
	"findash/internal/core"
	"findash/internal/dashboard"
	applog "findash/internal/log"
	"findash/internal/middleware/ratelimit"
	"findash/internal/middleware/security"
	"findash/internal/middleware/trace"
	appweb "findash/web"
)

// Dashboards is what the handlers need from dashboard.Service.
type Dashboards interface {
	Dashboard(sel core.Selection) (*dashboard.Dashboard, *core.Table, error)
	Reload(ctx context.Context, trigger string) (*core.Table, error)
	Table() *core.Table
	Options() dashboard.Options
}

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	Addr            string
	ReloadPerMinute int
	SVGCacheSize    int
	SVGCacheTTL     time.Duration
	Logger          *applog.Logger
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = ":8080"
	}
	if o.ReloadPerMinute <= 0 {
		o.ReloadPerMinute = 6
	}
	if o.SVGCacheSize <= 0 {
		o.SVGCacheSize = 256
	}
	if o.SVGCacheTTL <= 0 {
		o.SVGCacheTTL = 10 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = applog.FromContext(context.Background())
	}
	return o
}

type Server struct {
	http.Server
	dash      Dashboards
	templates *template.Template
	logger    *applog.Logger

	svgCache     *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	reloadLimiter *ratelimit.Limiter
	detector      *security.Detector
	tracer        *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(dash Dashboards, opts Options) (*Server, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	detector := security.NewDetector(opts.Logger)
	s := &Server{
		dash:          dash,
		templates:     t,
		logger:        logger,
		svgCache:      cache.NewLRUCache[[]byte](opts.SVGCacheSize, opts.SVGCacheTTL),
		cacheManager:  cache.NewManager(),
		reloadLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.ReloadPerMinute}),
		detector:      detector,
		tracer:        trace.NewMiddleware(detector.ExtractClientIP, opts.Logger),
		started:       time.Now(),
	}
	s.cacheManager.Register(s.svgCache)
	s.cacheManager.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(http.StripPrefix("/static/", http.FileServer(http.FS(static)))))
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/charts/{file}", s.handleChartSVG)
	mux.Handle("POST /api/reload", s.reloadLimiter.Middleware(detector.ExtractClientIP, s.rateLimited)(http.HandlerFunc(s.handleReload)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var handler http.Handler = mux
	handler = applog.ComponentMiddleware(applog.ComponentHTTP)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

// InvalidateCharts drops cached SVGs drawn from any other table version.
// Register it with the dashboard service so a reload frees them right away.
func (s *Server) InvalidateCharts(t *core.Table) {
	version := t.Version()
	n := s.svgCache.DeleteFunc(func(key string) bool {
		return svgKeyVersion(key) != version
	})
	if n > 0 {
		s.logger.Debug("Stale SVGs dropped", "entries", n, applog.FieldVersion, version)
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.reloadLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Reload rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r))
	writeError(w, http.StatusTooManyRequests, "too many reloads, try again later")
}
