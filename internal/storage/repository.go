package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"findash/internal/core"
	ports "findash/internal/sheets"

	_ "modernc.org/sqlite"
)

// ErrNoImports is returned by ReadTable before the first import.
var ErrNoImports = errors.New("no table imported yet")

// Import describes one stored snapshot.
type Import struct {
	ID            int64
	Source        string
	ImportedAt    time.Time
	BalanceMonths int
}

// SQLiteRepository stores imported tables. Every SaveTable appends a new
// import; ReadTable always serves the latest one.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ports.TableReader = (*SQLiteRepository)(nil)
	_ ports.TableWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveTable implements sheets.TableWriter
func (r *SQLiteRepository) SaveTable(ctx context.Context, t *core.Table) (string, error) {
	if t == nil {
		return "", errors.New("nil table")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO imports (source, imported_at, balance_months) VALUES (?, ?, ?)`,
		t.Source(), t.LoadedAt().UTC().Format(time.RFC3339Nano), t.BalanceMonths())
	if err != nil {
		return "", fmt.Errorf("insert import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("import id: %w", err)
	}

	figStmt, err := tx.PrepareContext(ctx, `INSERT INTO figures (import_id, category, month, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare figures: %w", err)
	}
	defer figStmt.Close()

	for _, c := range core.Categories {
		values, err := t.Row(c)
		if err != nil {
			return "", err
		}
		for m, v := range values {
			if _, err := figStmt.ExecContext(ctx, id, string(c), m, v); err != nil {
				return "", fmt.Errorf("insert %s month %d: %w", c, m, err)
			}
		}
		if total, ok := t.YearTotal(c); ok {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO figure_totals (import_id, category, total) VALUES (?, ?, ?)`,
				id, string(c), total); err != nil {
				return "", fmt.Errorf("insert %s total: %w", c, err)
			}
		}
	}

	for _, item := range core.BalanceItems {
		values, ok := t.Balance(item)
		if !ok {
			continue
		}
		for m, v := range values {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO balance (import_id, item, month, value) VALUES (?, ?, ?, ?)`,
				id, string(item), m, v); err != nil {
				return "", fmt.Errorf("insert balance %s month %d: %w", item, m, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Table saved to SQLite",
		"import_id", id,
		"source", t.Source(),
		"balance_months", t.BalanceMonths())

	return "sqlite:" + strconv.FormatInt(id, 10), nil
}

// LastImport returns the newest import, or ErrNoImports.
func (r *SQLiteRepository) LastImport(ctx context.Context) (Import, error) {
	var (
		imp Import
		at  string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, source, imported_at, balance_months FROM imports ORDER BY id DESC LIMIT 1`).
		Scan(&imp.ID, &imp.Source, &at, &imp.BalanceMonths)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrNoImports
	}
	if err != nil {
		return Import{}, fmt.Errorf("query last import: %w", err)
	}
	imp.ImportedAt, err = time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return Import{}, fmt.Errorf("parse imported_at %q: %w", at, err)
	}
	return imp, nil
}

// ReadTable implements sheets.TableReader by loading the newest import.
func (r *SQLiteRepository) ReadTable(ctx context.Context) (*core.Table, error) {
	imp, err := r.LastImport(ctx)
	if err != nil {
		return nil, err
	}

	data := core.TableData{
		Source: "sqlite:" + imp.Source,
		Rows:   make(map[core.Category]core.Row, len(core.Categories)),
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, month, value FROM figures WHERE import_id = ?`, imp.ID)
	if err != nil {
		return nil, fmt.Errorf("query figures: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cat   string
			month int
			value float64
		)
		if err := rows.Scan(&cat, &month, &value); err != nil {
			return nil, fmt.Errorf("scan figure: %w", err)
		}
		if month < 0 || month >= core.MonthsInYear {
			return nil, fmt.Errorf("%w: %s month %d", core.ErrMalformedRow, cat, month)
		}
		row := data.Rows[core.Category(cat)]
		row.Values[month] = value
		data.Rows[core.Category(cat)] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate figures: %w", err)
	}

	if err := r.readTotals(ctx, imp.ID, data.Rows); err != nil {
		return nil, err
	}
	if imp.BalanceMonths > 0 {
		data.Balance, err = r.readBalance(ctx, imp)
		if err != nil {
			return nil, err
		}
	}
	return core.NewTable(data)
}

func (r *SQLiteRepository) readTotals(ctx context.Context, importID int64, out map[core.Category]core.Row) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, total FROM figure_totals WHERE import_id = ?`, importID)
	if err != nil {
		return fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cat   string
			total float64
		)
		if err := rows.Scan(&cat, &total); err != nil {
			return fmt.Errorf("scan total: %w", err)
		}
		row, ok := out[core.Category(cat)]
		if !ok {
			continue
		}
		row.Total, row.HasTotal = total, true
		out[core.Category(cat)] = row
	}
	return rows.Err()
}

func (r *SQLiteRepository) readBalance(ctx context.Context, imp Import) (map[core.BalanceItem][]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item, month, value FROM balance WHERE import_id = ?`, imp.ID)
	if err != nil {
		return nil, fmt.Errorf("query balance: %w", err)
	}
	defer rows.Close()

	out := map[core.BalanceItem][]float64{}
	for rows.Next() {
		var (
			item  string
			month int
			value float64
		)
		if err := rows.Scan(&item, &month, &value); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		if month < 0 || month >= imp.BalanceMonths {
			return nil, fmt.Errorf("%w: %s month %d", core.ErrInvalidBalance, item, month)
		}
		values, ok := out[core.BalanceItem(item)]
		if !ok {
			values = make([]float64, imp.BalanceMonths)
			out[core.BalanceItem(item)] = values
		}
		values[month] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance: %w", err)
	}
	return out, nil
}

// PruneImports deletes all but the newest keep imports and returns how many were removed.
func (r *SQLiteRepository) PruneImports(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const stale = `SELECT id FROM imports ORDER BY id DESC LIMIT -1 OFFSET ?`
	for _, table := range []string{"figures", "figure_totals", "balance"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE import_id IN (%s)`, table, stale)
		if _, err := tx.ExecContext(ctx, q, keep); err != nil {
			return 0, fmt.Errorf("prune %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM imports WHERE id IN (`+stale+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune imports: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
