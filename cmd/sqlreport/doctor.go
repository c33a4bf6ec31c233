package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlreport/internal/catalog"
	"github.com/pthm/sqlreport/internal/cli"
	"github.com/pthm/sqlreport/internal/doctor"
)

var (
	doctorDB      string
	doctorGraph   string
	doctorVerbose bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long: `Run health checks on the relation graph and, when a database is
configured, compare the graph with the database's foreign keys.`,
	Example: `  # Check the configured graph
  sqlreport doctor

  # Check against a database with verbose output
  sqlreport doctor --db postgres://localhost/reports --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(doctorDB)
		if err != nil {
			return err
		}
		return runDoctor(cmd.Context(), cmd, dsn)
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "database URL")
	f.StringVar(&doctorGraph, "graph", "", "relation artifact path (default from graph config)")
	f.BoolVar(&doctorVerbose, "verbose", false, "show detailed output")
}

func runDoctor(ctx context.Context, cmd *cobra.Command, dsn string) error {
	var opts []doctor.Option
	var cat *catalog.Catalog
	if dsn != "" {
		db, err := openDB(ctx, dsn)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		cat = newCatalog(db)
		opts = append(opts, doctor.WithCatalog(cat))
	}

	source, file := cfg.Graph.Source, cfg.Graph.File
	if doctorGraph != "" {
		source, file = cli.GraphFile, doctorGraph
	}
	graph, from, err := loadGraph(ctx, source, file, cat)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !quiet {
		_, _ = fmt.Fprintln(out, "sqlreport doctor - Health Check")
	}

	report, err := doctor.New(graph, from, opts...).Run(ctx)
	if err != nil {
		return cli.GeneralError("running doctor", err)
	}

	report.Print(out, doctorVerbose)

	if report.HasErrors() {
		return cli.GeneralError("health checks failed", nil)
	}
	return nil
}
