package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/pthm/sqlreport/internal/catalog"
	"github.com/pthm/sqlreport/internal/cli"
	"github.com/pthm/sqlreport/internal/compiler"
	"github.com/pthm/sqlreport/internal/relgraph"
	"github.com/pthm/sqlreport/internal/report"
)

// resolveDSN gets the database DSN from flag or config. It returns "" when
// neither names a database.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	if !cfg.HasDatabase() {
		return "", nil
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("building database DSN", err)
	}
	return dsn, nil
}

// openDB opens and pings a pgx-backed *sql.DB.
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, cli.DBConnectError("connecting to database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, cli.DBConnectError("connecting to database", err)
	}
	return db, nil
}

// newCatalog wraps db with the configured schema and logger.
func newCatalog(db *sql.DB, opts ...catalog.Option) *catalog.Catalog {
	base := []catalog.Option{
		catalog.WithSchema(cfg.Database.Schema),
		catalog.WithLogger(logger),
	}
	return catalog.New(db, append(base, opts...)...)
}

// loadGraph loads the relation graph from the selected source. It returns the
// graph and a description of where it came from.
func loadGraph(ctx context.Context, source, file string, cat *catalog.Catalog) (*relgraph.Graph, string, error) {
	switch source {
	case cli.GraphEmbedded:
		g, err := relgraph.Embedded()
		if err != nil {
			return nil, "", cli.GeneralError("loading embedded relation graph", err)
		}
		return g, "embedded artifact", nil
	case cli.GraphFile:
		if file == "" {
			return nil, "", cli.ConfigError("graph.file is required when graph.source is file", nil)
		}
		g, err := relgraph.LoadFile(file)
		if err != nil {
			return nil, "", cli.ConfigError("loading relation graph", err)
		}
		return g, file, nil
	case cli.GraphCatalog:
		if cat == nil {
			return nil, "", cli.ConfigError("graph.source catalog requires a database", nil)
		}
		g, err := cat.Graph(ctx)
		if err != nil {
			return nil, "", cli.DBConnectError("reading foreign keys", err)
		}
		return g, fmt.Sprintf("database schema %s", cat.Schema()), nil
	}
	return nil, "", cli.ConfigError(fmt.Sprintf("unknown graph source %q", source), nil)
}

// newCompiler builds a compiler from config, with flag overrides. inferRefs is
// already resolved against config by the caller.
func newCompiler(g *relgraph.Graph, defaultJoin string, inferRefs bool) (*compiler.Compiler, error) {
	join, ok := report.ParseJoinType(resolveString(defaultJoin, cfg.Compiler.DefaultJoin))
	if !ok {
		return nil, cli.ConfigError(fmt.Sprintf("invalid default join %q", defaultJoin), nil)
	}
	return compiler.New(g,
		compiler.WithDefaultJoin(join),
		compiler.WithColumnRefInference(inferRefs),
		compiler.WithLogger(logger),
	), nil
}
