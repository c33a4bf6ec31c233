// Package catalog reads table, column and foreign key metadata from
// PostgreSQL's information_schema and memoizes it.
//
// Cached data is never refreshed implicitly. Call Invalidate after schema
// changes.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/sqlreport/internal/codec"
	"github.com/pthm/sqlreport/internal/relgraph"
)

// ErrCatalog is returned when schema metadata cannot be read.
var ErrCatalog = errors.New("catalog unavailable")

// DefaultSchema is the schema read when none is configured.
const DefaultSchema = "public"

// Queryer is the subset of *sql.DB the catalog needs. *sql.Tx and *sql.Conn
// also satisfy it.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Table is a base table in the schema.
type Table struct {
	Name string `json:"table_name"`
}

// Attribute is a column of a table.
type Attribute struct {
	Name string `json:"column_name"`
	Type string `json:"type"`
}

// Relation is a single-column foreign key.
type Relation struct {
	Table            string `json:"table_name"`
	RelatedTable     string `json:"related_table"`
	Column           string `json:"column_name"`
	ReferencedColumn string `json:"referenced_column"`
}

// ForeignKey converts r for the relation graph.
func (r Relation) ForeignKey() relgraph.ForeignKey {
	return relgraph.ForeignKey{
		Table:            r.Table,
		Column:           r.Column,
		References:       r.RelatedTable,
		ReferencedColumn: r.ReferencedColumn,
	}
}

// Catalog serves schema metadata from memoized queries. It is safe for
// concurrent use.
type Catalog struct {
	db      Queryer
	schema  string
	logger  *slog.Logger
	observe func(resource string, err error)

	tables     *Memo[[]Table]
	relations  *Memo[[]Relation]
	attributes *MemoMap[[]Attribute]
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSchema sets the schema to read. The default is "public".
func WithSchema(name string) Option {
	return func(c *Catalog) {
		c.schema = name
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = l
	}
}

// WithFetchObserver registers a callback run after every database fetch
// with the resource name ("tables", "attributes", "relations") and the
// fetch error, if any.
func WithFetchObserver(fn func(resource string, err error)) Option {
	return func(c *Catalog) {
		c.observe = fn
	}
}

// New creates a Catalog over db.
func New(db Queryer, opts ...Option) *Catalog {
	c := &Catalog{
		db:      db,
		schema:  DefaultSchema,
		logger:  slog.Default(),
		observe: func(string, error) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tables = NewMemo(c.fetchTables)
	c.relations = NewMemo(c.fetchRelations)
	c.attributes = NewMemoMap(c.fetchAttributes)
	return c
}

// Schema returns the schema name the catalog reads.
func (c *Catalog) Schema() string {
	return c.schema
}

// Tables lists base tables in name order.
func (c *Catalog) Tables(ctx context.Context) ([]Table, error) {
	return c.tables.Get(ctx)
}

// TableNames lists base table names in order.
func (c *Catalog) TableNames(ctx context.Context) ([]string, error) {
	tables, err := c.Tables(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names, nil
}

// Attributes lists the columns of table in ordinal order. An unknown table
// has no columns.
func (c *Catalog) Attributes(ctx context.Context, table string) ([]Attribute, error) {
	if !codec.IsIdentifier(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", ErrCatalog, table)
	}
	names, err := c.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, table) {
		return []Attribute{}, nil
	}
	return c.attributes.Get(ctx, table)
}

// Relations lists foreign keys between tables of the schema.
func (c *Catalog) Relations(ctx context.Context) ([]Relation, error) {
	return c.relations.Get(ctx)
}

// Graph builds a relation graph from the schema's foreign keys.
func (c *Catalog) Graph(ctx context.Context) (*relgraph.Graph, error) {
	rels, err := c.Relations(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]relgraph.ForeignKey, len(rels))
	for i, r := range rels {
		keys[i] = r.ForeignKey()
	}
	g, err := relgraph.New(keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalog, err)
	}
	return g, nil
}

// ColumnTypes returns data types keyed by "table.column" for the given
// tables. Tables are fetched concurrently.
func (c *Catalog) ColumnTypes(ctx context.Context, tables []string) (map[string]string, error) {
	results := make([][]Attribute, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	for i, table := range tables {
		g.Go(func() error {
			attrs, err := c.Attributes(ctx, table)
			results[i] = attrs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	types := make(map[string]string)
	for i, table := range tables {
		for _, a := range results[i] {
			types[table+"."+a.Name] = a.Type
		}
	}
	return types, nil
}

// Invalidate empties every cache.
func (c *Catalog) Invalidate() {
	c.tables.Invalidate()
	c.relations.Invalidate()
	c.attributes.Invalidate()
	c.logger.Info("catalog cache invalidated", "schema", c.schema)
}

// Fetches reports how many database fetches each cache has made.
func (c *Catalog) Fetches() (tables, relations int64) {
	return c.tables.Fetches(), c.relations.Fetches()
}

const tablesQuery = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = $1
	AND table_type = 'BASE TABLE'
	ORDER BY table_name
`

func (c *Catalog) fetchTables(ctx context.Context) (tables []Table, err error) {
	ctx, span := startSpan(ctx, "catalog.get_tables",
		attribute.String("db.schema", c.schema),
	)
	defer span.End()
	defer func() { c.done("tables", err) }()

	rows, err := c.db.QueryContext(ctx, tablesQuery, c.schema)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: query tables: %w", ErrCatalog, err)
	}
	defer func() { _ = rows.Close() }()

	tables = []Table{}
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name); err != nil {
			recordSpanError(span, err)
			return nil, fmt.Errorf("%w: scan table: %w", ErrCatalog, err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: iterate tables: %w", ErrCatalog, err)
	}
	span.SetAttributes(attribute.Int("catalog.count", len(tables)))
	return tables, nil
}

const attributesQuery = `
	SELECT column_name, data_type
	FROM information_schema.columns
	WHERE table_schema = $1
	AND table_name = $2
	ORDER BY ordinal_position
`

func (c *Catalog) fetchAttributes(ctx context.Context, table string) (attrs []Attribute, err error) {
	ctx, span := startSpan(ctx, "catalog.get_attributes",
		attribute.String("db.schema", c.schema),
		attribute.String("db.table", table),
	)
	defer span.End()
	defer func() { c.done("attributes", err) }()

	rows, err := c.db.QueryContext(ctx, attributesQuery, c.schema, table)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: query attributes of %s: %w", ErrCatalog, table, err)
	}
	defer func() { _ = rows.Close() }()

	attrs = []Attribute{}
	for rows.Next() {
		var a Attribute
		if err := rows.Scan(&a.Name, &a.Type); err != nil {
			recordSpanError(span, err)
			return nil, fmt.Errorf("%w: scan attribute: %w", ErrCatalog, err)
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: iterate attributes: %w", ErrCatalog, err)
	}
	return attrs, nil
}

// Composite keys are out of scope: only constraints with a single column
// pair are returned.
const relationsQuery = `
	SELECT
		kcu.table_name,
		ccu.table_name AS related_table,
		kcu.column_name,
		ccu.column_name AS referenced_column
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON kcu.constraint_name = tc.constraint_name
		AND kcu.constraint_schema = tc.constraint_schema
	JOIN information_schema.constraint_column_usage ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.constraint_schema = tc.constraint_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
	AND tc.table_schema = $1
	AND (
		SELECT count(*)
		FROM information_schema.key_column_usage k
		WHERE k.constraint_name = tc.constraint_name
		AND k.constraint_schema = tc.constraint_schema
	) = 1
	ORDER BY kcu.table_name, tc.constraint_name
`

func (c *Catalog) fetchRelations(ctx context.Context) (rels []Relation, err error) {
	ctx, span := startSpan(ctx, "catalog.get_relations",
		attribute.String("db.schema", c.schema),
	)
	defer span.End()
	defer func() { c.done("relations", err) }()

	rows, err := c.db.QueryContext(ctx, relationsQuery, c.schema)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: query relations: %w", ErrCatalog, err)
	}
	defer func() { _ = rows.Close() }()

	rels = []Relation{}
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.Table, &r.RelatedTable, &r.Column, &r.ReferencedColumn); err != nil {
			recordSpanError(span, err)
			return nil, fmt.Errorf("%w: scan relation: %w", ErrCatalog, err)
		}
		rels = append(rels, r)
	}
	if err := rows.Err(); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: iterate relations: %w", ErrCatalog, err)
	}
	span.SetAttributes(attribute.Int("catalog.count", len(rels)))
	return rels, nil
}

func (c *Catalog) done(resource string, err error) {
	c.observe(resource, err)
	if err != nil {
		c.logger.Error("catalog fetch failed", "resource", resource, "schema", c.schema, "error", err)
		return
	}
	c.logger.Debug("catalog fetched", "resource", resource, "schema", c.schema)
}
