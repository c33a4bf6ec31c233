// Package testutil provides a PostgreSQL container for integration tests.
//
// Tests calling DB are skipped under -short and when no container runtime is
// available.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

//go:embed testdata/schema.sql
var schemaSQL string

// Singleton container state
var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error

	templateOnce sync.Once
	templateName string
	templateErr  error
)

// ensureSingleton lazily starts the shared PostgreSQL container.
func ensureSingleton() (string, error) {
	singletonOnce.Do(func() {
		ctx := context.Background()

		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_INITDB_ARGS": "--auth-host=trust",
			}),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}
		// Container is not stored - ryuk will handle cleanup automatically
		singletonDSN = dsn
	})

	return singletonDSN, singletonErr
}

// ensureTemplate creates the template database holding the fixture schema.
func ensureTemplate(adminDSN string) (string, error) {
	templateOnce.Do(func() {
		templateName = "sqlreport_template"

		if err := createDatabase(adminDSN, templateName); err != nil {
			templateErr = fmt.Errorf("failed to create template database: %w", err)
			return
		}
		if err := applyFixture(replaceDBName(adminDSN, templateName)); err != nil {
			templateErr = err
			return
		}
		// Non-fatal: copying still works without the template flag
		_ = markAsTemplate(adminDSN, templateName)
	})

	return templateName, templateErr
}

func start(tb testing.TB) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping PostgreSQL integration test in short mode")
	}
	adminDSN, err := ensureSingleton()
	if err != nil {
		tb.Skipf("PostgreSQL container unavailable: %v", err)
	}
	return adminDSN
}

// DB returns a connection to a fresh database holding the fixture schema
// and rows. The database is dropped when the test completes.
func DB(tb testing.TB) *sql.DB {
	db, _ := DBWithDSN(tb)
	return db
}

// DBWithDSN is DB that also returns the connection string.
func DBWithDSN(tb testing.TB) (*sql.DB, string) {
	tb.Helper()
	adminDSN := start(tb)

	tmpl, err := ensureTemplate(adminDSN)
	require.NoError(tb, err, "failed to create template database")

	dbName := uniqueDBName("test")
	err = createDatabaseFromTemplate(adminDSN, dbName, tmpl)
	require.NoError(tb, err, "failed to create test database from template")

	dsn := replaceDBName(adminDSN, dbName)
	return open(tb, adminDSN, dbName, dsn), dsn
}

// EmptyDB returns a connection to a fresh database with no tables.
func EmptyDB(tb testing.TB) *sql.DB {
	tb.Helper()
	adminDSN := start(tb)

	dbName := uniqueDBName("empty")
	err := createDatabase(adminDSN, dbName)
	require.NoError(tb, err, "failed to create empty database")

	return open(tb, adminDSN, dbName, replaceDBName(adminDSN, dbName))
}

// SchemaSQL returns the embedded fixture DDL and rows.
func SchemaSQL() string {
	return schemaSQL
}

func open(tb testing.TB, adminDSN, dbName, dsn string) *sql.DB {
	tb.Helper()
	db, err := sql.Open("pgx", dsn)
	require.NoError(tb, err, "failed to connect to test database")
	require.NoError(tb, db.Ping(), "failed to ping test database")

	tb.Cleanup(func() {
		_ = db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = dropDatabase(ctx, adminDSN, dbName)
	})
	return db
}

func applyFixture(dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply fixture schema: %w", err)
	}
	return nil
}

func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

func createDatabase(adminDSN, name string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", name))
	return err
}

func createDatabaseFromTemplate(adminDSN, name, template string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	terminateBackends(context.Background(), db, template)
	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s WITH TEMPLATE %s", name, template))
	return err
}

func markAsTemplate(adminDSN, name string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	terminateBackends(context.Background(), db, name)
	_, err = db.Exec(fmt.Sprintf("ALTER DATABASE %s WITH is_template = true", name))
	return err
}

func dropDatabase(ctx context.Context, adminDSN, name string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	terminateBackends(ctx, db, name)
	_, err = db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", name))
	return err
}

func terminateBackends(ctx context.Context, db *sql.DB, name string) {
	_, _ = db.ExecContext(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, name)
}

// replaceDBName swaps the database name in a postgres:// URL.
func replaceDBName(dsn, newDB string) string {
	for i := len(dsn) - 1; i >= 0; i-- {
		if dsn[i] != '/' {
			continue
		}
		rest := ""
		for j := i + 1; j < len(dsn); j++ {
			if dsn[j] == '?' {
				rest = dsn[j:]
				break
			}
		}
		return dsn[:i+1] + newDB + rest
	}
	return dsn
}
