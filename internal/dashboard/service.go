package dashboard

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"findash/internal/core"
	applog "findash/internal/log"
	"findash/internal/sheets"
)

// reloadTimeout bounds one read of the source, independent of the caller.
const reloadTimeout = 60 * time.Second

// Service holds the current table snapshot and rebuilds it on demand.
type Service struct {
	reader sheets.TableReader
	opts   Options
	log    *applog.Logger
	events *applog.StructuredLogger

	table atomic.Pointer[core.Table]
	group singleflight.Group

	mu        sync.Mutex
	listeners []func(*core.Table)
}

func NewService(reader sheets.TableReader, opts Options, logger *applog.Logger) *Service {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentDashboard)
	return &Service{
		reader: reader,
		opts:   opts,
		log:    logger,
		events: applog.NewStructuredLogger(logger),
	}
}

// OnReload registers fn to run after every successful swap.
func (s *Service) OnReload(fn func(*core.Table)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Table returns the current snapshot, nil before the first load.
func (s *Service) Table() *core.Table {
	return s.table.Load()
}

// Options returns the presentation options.
func (s *Service) Options() Options {
	return s.opts
}

// Reload re-reads the source and swaps the snapshot. Concurrent calls share
// one read. On failure the previous snapshot stays in place.
func (s *Service) Reload(ctx context.Context, trigger string) (*core.Table, error) {
	v, err, shared := s.group.Do("reload", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reloadTimeout)
		defer cancel()

		t, err := s.reader.ReadTable(ctx)
		if err != nil {
			s.events.LogError(ctx, "Table reload failed", err, applog.ComponentDashboard, applog.OpReload,
				applog.LogFields{applog.FieldTrigger: trigger})
			return nil, fmt.Errorf("reload table: %w", err)
		}
		s.table.Store(t)

		warnings := t.Warnings()
		for _, w := range warnings {
			s.log.WarnContext(ctx, "Data quality warning", applog.FieldSource, t.Source(), "warning", w)
		}
		s.events.LogReload(ctx, trigger, t.Source(), t.Version(), len(warnings))

		s.mu.Lock()
		listeners := slices.Clone(s.listeners)
		s.mu.Unlock()
		for _, fn := range listeners {
			fn(t)
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.DebugContext(ctx, "Reload coalesced", applog.FieldTrigger, trigger)
	}
	return v.(*core.Table), nil
}

// Dashboard builds the dashboard for sel from the current snapshot.
func (s *Service) Dashboard(sel core.Selection) (*Dashboard, *core.Table, error) {
	t := s.table.Load()
	if t == nil {
		return nil, nil, ErrNotLoaded
	}
	d, err := Build(t, sel, s.opts)
	if err != nil {
		return nil, nil, err
	}
	return d, t, nil
}
