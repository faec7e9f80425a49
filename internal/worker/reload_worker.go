// Package worker reacts to table.updated notifications by reloading the
// dashboard table.
package worker

import (
	"context"
	"errors"
	"sync/atomic"

	"findash/internal/amqp"
	"findash/internal/core"
	applog "findash/internal/log"
)

// Trigger names reloads started by a notification.
const Trigger = "amqp"

// Reloader is the part of dashboard.Service the worker drives.
type Reloader interface {
	Reload(ctx context.Context, trigger string) (*core.Table, error)
	Table() *core.Table
}

// Consumer delivers table update notifications until ctx is done.
type Consumer interface {
	ConsumeTableUpdates(ctx context.Context, handler func(context.Context, *amqp.TableUpdatedMessage) error) error
}

// ReloadWorker handles table update notifications from AMQP.
type ReloadWorker struct {
	consumer Consumer
	reloader Reloader
	logger   *applog.Logger

	reloaded atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

func NewReloadWorker(c Consumer, r Reloader, logger *applog.Logger) *ReloadWorker {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &ReloadWorker{
		consumer: c,
		reloader: r,
		logger:   logger.WithComponent(applog.ComponentAMQP),
	}
}

// HandleTableUpdated reloads the table unless the current snapshot was
// loaded after the notification was sent. An error makes the consumer
// requeue the message once.
func (w *ReloadWorker) HandleTableUpdated(ctx context.Context, msg *amqp.TableUpdatedMessage) error {
	if t := w.reloader.Table(); t != nil && !msg.Timestamp.IsZero() && msg.Timestamp.Before(t.LoadedAt()) {
		w.skipped.Add(1)
		w.logger.DebugContext(ctx, "Table already newer than notification",
			applog.FieldImportRef, msg.Ref,
			applog.FieldVersion, t.Version())
		return nil
	}

	w.logger.InfoContext(ctx, "Processing table update",
		applog.FieldOperation, applog.OpConsume,
		applog.FieldSource, msg.Source,
		applog.FieldImportRef, msg.Ref)

	t, err := w.reloader.Reload(ctx, Trigger)
	if err != nil {
		w.failed.Add(1)
		return err
	}
	w.reloaded.Add(1)
	w.logger.DebugContext(ctx, "Table reloaded from notification", applog.FieldVersion, t.Version())
	return nil
}

// Run consumes notifications until ctx is cancelled.
func (w *ReloadWorker) Run(ctx context.Context) error {
	err := w.consumer.ConsumeTableUpdates(ctx, w.HandleTableUpdated)
	if errors.Is(err, context.Canceled) {
		reloaded, skipped, failed := w.Stats()
		w.logger.InfoContext(context.WithoutCancel(ctx), "Reload worker stopped",
			"reloaded", reloaded, "skipped", skipped, "failed", failed)
		return nil
	}
	return err
}

// Stats reports how many notifications led to a reload, were skipped or failed.
func (w *ReloadWorker) Stats() (reloaded, skipped, failed int64) {
	return w.reloaded.Load(), w.skipped.Load(), w.failed.Load()
}
