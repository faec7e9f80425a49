package sheets

import (
	"context"

	"findash/internal/core"
)

// Ports for outbound adapters.
type (
	// TableReader loads the monthly figures from a tabular source.
	TableReader interface {
		ReadTable(ctx context.Context) (*core.Table, error)
	}

	// TableWriter persists a loaded table, returning a reference to the stored copy.
	TableWriter interface {
		SaveTable(ctx context.Context, t *core.Table) (ref string, err error)
	}
)
