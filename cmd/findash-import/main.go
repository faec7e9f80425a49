// Command findash-import loads a workbook or CSV export into the SQLite store
// served by DATA_BACKEND=sqlite, and optionally tells running dashboards to reload.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"findash/internal/amqp"
	"findash/internal/cli"
	"findash/internal/config"
	"findash/internal/core"
	applog "findash/internal/log"
	"findash/internal/sheets"
	"findash/internal/sheets/file"
	"findash/internal/storage"
)

// publisher is the part of amqp.Client the import needs.
type publisher interface {
	PublishTableUpdated(ctx context.Context, source, ref string) error
	Close() error
}

var newPublisher = func(url, exchange string) (publisher, error) {
	return amqp.NewClient(url, exchange, "")
}

type importOptions struct {
	file     string
	layout   string
	dbPath   string
	keep     int
	publish  bool
	amqpURL  string
	exchange string
	dryRun   bool
}

func main() {
	if _, err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintln(os.Stderr, "load env file:", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentImport)

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := newRootCmd(config.Load(), logger).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config, logger *applog.Logger) *cobra.Command {
	opts := importOptions{
		layout:   cfg.LayoutFile,
		dbPath:   cfg.SQLiteDBPath,
		keep:     10,
		amqpURL:  cfg.AMQPURL,
		exchange: cfg.AMQPExchange,
	}

	root := &cobra.Command{
		Use:   "findash-import <file.xlsx|file.csv>",
		Short: "Import monthly figures into the findash SQLite store",
		Long: "Reads a workbook or CSV export with the sheet layout, stores it as a new " +
			"import in SQLite and optionally publishes a table.updated message so " +
			"running dashboards reload.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = args[0]
			return runImport(cmd.Context(), opts, logger, cmd.OutOrStdout())
		},
	}

	f := root.Flags()
	f.StringVar(&opts.layout, "layout", opts.layout, "layout YAML (default: XDG config or embedded)")
	f.StringVar(&opts.dbPath, "db", opts.dbPath, "SQLite database path")
	f.IntVar(&opts.keep, "keep", opts.keep, "number of imports to keep, 0 keeps all")
	f.BoolVar(&opts.publish, "publish", false, "publish table.updated on AMQP after the import")
	f.StringVar(&opts.amqpURL, "amqp-url", opts.amqpURL, "AMQP broker URL")
	f.StringVar(&opts.exchange, "exchange", opts.exchange, "AMQP exchange")
	f.BoolVar(&opts.dryRun, "dry-run", false, "parse and summarize without saving")

	root.AddCommand(newStatusCmd(&opts))
	return root
}

func newStatusCmd(opts *importOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Show the newest import",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSQLiteRepository(opts.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			imp, err := repo.LastImport(cmd.Context())
			if errors.Is(err, storage.ErrNoImports) {
				fmt.Fprintln(cmd.OutOrStdout(), "no imports yet")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "import %d from %s at %s (balance months: %d)\n",
				imp.ID, imp.Source, imp.ImportedAt.Format("2006-01-02 15:04:05"), imp.BalanceMonths)
			return nil
		},
	}
}

func runImport(ctx context.Context, opts importOptions, logger *applog.Logger, out io.Writer) error {
	if opts.publish && opts.amqpURL == "" {
		return errors.New("--publish needs --amqp-url or AMQP_URL")
	}

	layout, layoutSource, err := sheets.LoadLayout(opts.layout)
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "Layout loaded", "layout", layoutSource)

	t, err := file.New(opts.file, layout).ReadTable(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Import failed",
			applog.FieldOperation, applog.OpImport,
			applog.FieldSource, opts.file,
			applog.FieldError, err)
		return err
	}
	for _, w := range t.Warnings() {
		logger.WarnContext(ctx, "Data quality warning", applog.FieldSource, t.Source(), "warning", w)
	}
	printSummary(out, t)

	if opts.dryRun {
		return nil
	}

	repo, err := storage.NewSQLiteRepository(opts.dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	ref, err := repo.SaveTable(ctx, t)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved as %s in %s\n", ref, opts.dbPath)

	if opts.keep > 0 {
		n, err := repo.PruneImports(ctx, opts.keep)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.InfoContext(ctx, "Pruned old imports", "removed", n, "kept", opts.keep)
		}
	}

	if !opts.publish {
		return nil
	}
	pub, err := newPublisher(opts.amqpURL, opts.exchange)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer pub.Close()
	if err := pub.PublishTableUpdated(ctx, t.Source(), ref); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Published table update",
		applog.FieldOperation, applog.OpPublish,
		applog.FieldImportRef, ref,
		"exchange", opts.exchange)
	return nil
}

func printSummary(out io.Writer, t *core.Table) {
	fmt.Fprintf(out, "%s: balance months %d\n", t.Source(), t.BalanceMonths())
	for _, c := range []core.Category{core.Income, core.Expenses, core.Profit} {
		row, err := t.Row(c)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "  %-10s %s\n", c, core.FormatAmount(core.Totals(row.Slice()), ""))
	}
}
