package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlreport/internal/catalog"
	"github.com/pthm/sqlreport/internal/cli"
	"github.com/pthm/sqlreport/internal/executor"
	"github.com/pthm/sqlreport/internal/metrics"
	"github.com/pthm/sqlreport/internal/server"
)

var (
	serveAddr        string
	serveDB          string
	serveGraphSource string
	serveGraphFile   string
	serveCORSOrigin  string
	serveLint        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

Without a database only /query-to-view and /query-parts are useful; the
catalog routes and /query-report answer 500.`,
	Example: `  # Serve on the configured address with the embedded relation graph
  sqlreport serve --db postgres://localhost/reports

  # Infer joins from the database's own foreign keys
  sqlreport serve --db postgres://localhost/reports --graph-source catalog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	f.StringVar(&serveDB, "db", "", "database URL")
	f.StringVar(&serveGraphSource, "graph-source", "", "relation graph source: embedded, file, catalog")
	f.StringVar(&serveGraphFile, "graph", "", "relation artifact path (implies --graph-source file)")
	f.StringVar(&serveCORSOrigin, "cors-origin", "", "Access-Control-Allow-Origin value")
	f.BoolVar(&serveLint, "lint", false, "parse every compiled statement before returning it")
}

func runServe(ctx context.Context) error {
	m := metrics.New()
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(m),
		server.WithCORSOrigin(resolveString(serveCORSOrigin, cfg.Server.CORSOrigin)),
		server.WithLint(resolveBool(serveLint, cfg.Compiler.Lint)),
	}

	dsn, err := resolveDSN(serveDB)
	if err != nil {
		return err
	}

	var cat *catalog.Catalog
	if dsn != "" {
		db, err := openDB(ctx, dsn)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		cat = newCatalog(db, catalog.WithFetchObserver(m.ObserveCatalogFetch))
		opts = append(opts,
			server.WithCatalog(cat),
			server.WithRunner(executor.New(db,
				executor.WithMaxRows(cfg.Server.MaxRows),
				executor.WithLogger(logger),
			)),
		)
	} else {
		logger.Warn("no database configured; catalog and report routes are disabled")
	}

	source := resolveString(serveGraphSource, cfg.Graph.Source)
	if serveGraphFile != "" {
		source = cli.GraphFile
	}
	graph, from, err := loadGraph(ctx, source, resolveString(serveGraphFile, cfg.Graph.File), cat)
	if err != nil {
		return err
	}
	logger.Info("relation graph loaded", "source", from, "tables", len(graph.Tables()))

	comp, err := newCompiler(graph, "", cfg.Compiler.InferColumnRefs)
	if err != nil {
		return err
	}

	addr := resolveString(serveAddr, cfg.Server.Addr)
	if err := server.New(comp, opts...).Run(ctx, addr); err != nil {
		return cli.GeneralError("serving", err)
	}
	return nil
}
