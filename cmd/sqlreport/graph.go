package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/sqlreport/internal/catalog"
	"github.com/pthm/sqlreport/internal/cli"
	"github.com/pthm/sqlreport/internal/relgraph"
)

var (
	graphFile   string
	graphFromDB bool
	graphDB     string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the relation graph",
}

var graphShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the relation graph as an artifact",
	Long: `Print the relation graph as a YAML artifact.

With --from-db the foreign keys are read from the database catalog, which
makes the output a starting point for a checked-in artifact.`,
	Example: `  # Print the built-in graph
  sqlreport graph show

  # Snapshot the database foreign keys
  sqlreport graph show --from-db --db postgres://localhost/reports > relations.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := graphForCommand(cmd.Context())
		if err != nil {
			return err
		}
		out, err := g.YAML()
		if err != nil {
			return cli.GeneralError("rendering graph", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var graphPathCmd = &cobra.Command{
	Use:   "path <from> <to>",
	Short: "Print the join chain between two tables",
	Long: `Print the shortest chain of foreign keys between two tables.

Requests only join along direct edges, so every intermediate table in the
chain must also be listed in the request, in order.`,
	Example: `  sqlreport graph path brands payments`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := graphForCommand(cmd.Context())
		if err != nil {
			return err
		}
		return writePath(cmd.OutOrStdout(), g, args[0], args[1])
	},
}

func init() {
	for _, c := range []*cobra.Command{graphShowCmd, graphPathCmd} {
		f := c.Flags()
		f.StringVar(&graphFile, "graph", "", "relation artifact path (default from graph config)")
		f.BoolVar(&graphFromDB, "from-db", false, "read foreign keys from the database")
		f.StringVar(&graphDB, "db", "", "database URL (with --from-db)")
	}
	graphCmd.AddCommand(graphShowCmd)
	graphCmd.AddCommand(graphPathCmd)
}

func graphForCommand(ctx context.Context) (*relgraph.Graph, error) {
	source, file := cfg.Graph.Source, cfg.Graph.File
	if graphFile != "" {
		source, file = cli.GraphFile, graphFile
	}
	if graphFromDB {
		source = cli.GraphCatalog
	}

	var cat *catalog.Catalog
	if source == cli.GraphCatalog {
		dsn, err := resolveDSN(graphDB)
		if err != nil {
			return nil, err
		}
		if dsn == "" {
			return nil, cli.ConfigError("--from-db requires --db or database config", nil)
		}
		db, err := openDB(ctx, dsn)
		if err != nil {
			return nil, err
		}
		defer func() { _ = db.Close() }()
		cat = newCatalog(db)
	}

	g, _, err := loadGraph(ctx, source, file, cat)
	return g, err
}

func writePath(out io.Writer, g *relgraph.Graph, from, to string) error {
	for _, t := range []string{from, to} {
		if !g.Has(t) {
			return cli.RequestError(fmt.Sprintf("table %s has no relations", t), nil)
		}
	}
	path := g.Path(from, to)
	if path == nil {
		if from == to {
			_, err := fmt.Fprintln(out, from)
			return err
		}
		return cli.RequestError(fmt.Sprintf("no relation chain between %s and %s", from, to), nil)
	}

	tables := []string{from}
	cur := from
	for _, e := range path {
		cur = e.Other(cur)
		tables = append(tables, cur)
	}
	if _, err := fmt.Fprintln(out, strings.Join(tables, " -> ")); err != nil {
		return err
	}
	for _, e := range path {
		if _, err := fmt.Fprintf(out, "  %s\n", e); err != nil {
			return err
		}
	}
	return nil
}
