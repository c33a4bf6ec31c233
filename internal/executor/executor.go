// Package executor runs compiled report plans and returns rows as maps that
// encode to JSON without losing integer precision.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pthm/sqlreport/internal/compiler"
)

// ErrExecution is returned when the database rejects or fails a statement.
var ErrExecution = errors.New("report execution failed")

// MaxSafeInteger is the largest integer a JSON number can carry exactly in
// a float64 consumer.
const MaxSafeInteger = 1<<53 - 1

// Queryer is the subset of *sql.DB the executor needs.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Row is a result row keyed by column label.
type Row map[string]any

// Executor runs plans against a database.
type Executor struct {
	db      Queryer
	maxRows int
	logger  *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxRows stops reading after n rows. Zero means no limit.
func WithMaxRows(n int) Option {
	return func(e *Executor) {
		e.maxRows = n
	}
}

// WithLogger sets the executor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// New creates an Executor over db.
func New(db Queryer, opts ...Option) *Executor {
	e := &Executor{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the parameterized form of plan.
func (e *Executor) Run(ctx context.Context, plan *compiler.Plan) ([]Row, error) {
	query, args, err := plan.Parameterized()
	if err != nil {
		return nil, fmt.Errorf("%w: render: %w", ErrExecution, err)
	}
	return e.Query(ctx, query, args...)
}

// Query executes query and converts every row.
func (e *Executor) Query(ctx context.Context, query string, args ...any) (_ []Row, err error) {
	ctx, span := otel.Tracer("sqlreport/executor").Start(ctx, "executor.query",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.Int("db.args", len(args)),
		),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrap(err)
	}

	out := []Row{}
	for rows.Next() {
		if e.maxRows > 0 && len(out) >= e.maxRows {
			e.logger.Warn("report truncated", "max_rows", e.maxRows)
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrap(err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = Normalize(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}

	span.SetAttributes(attribute.Int("report.rows", len(out)))
	e.logger.Debug("report executed", "rows", len(out), "duration", time.Since(start))
	return out, nil
}

// Normalize converts a scanned driver value for JSON: integers outside the
// safe range become decimal strings and byte slices become text.
func Normalize(v any) any {
	switch x := v.(type) {
	case int64:
		if x > MaxSafeInteger || x < -MaxSafeInteger {
			return strconv.FormatInt(x, 10)
		}
		return x
	case uint64:
		if x > MaxSafeInteger {
			return strconv.FormatUint(x, 10)
		}
		return x
	case []byte:
		return string(x)
	}
	return v
}

// SQLState returns the PostgreSQL error code carried by err, if any.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func wrap(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (SQLSTATE %s): %w", ErrExecution, pgErr.Message, pgErr.Code, err)
	}
	return fmt.Errorf("%w: %w", ErrExecution, err)
}
