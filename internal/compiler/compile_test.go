package compiler

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlreport/internal/relgraph"
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqllint"
)

func newTestCompiler(t *testing.T, opts ...Option) *Compiler {
	t.Helper()
	return New(relgraph.MustEmbedded(), opts...)
}

func compileJSON(t *testing.T, c *Compiler, body string, opts ...CompileOption) *Plan {
	t.Helper()
	req, err := report.Parse([]byte(body))
	require.NoError(t, err)
	plan, err := c.Compile(req, opts...)
	require.NoError(t, err)

	require.NoError(t, sqllint.Check(plan.Statement()), plan.Statement())
	query, _, err := plan.Parameterized()
	require.NoError(t, err)
	require.NoError(t, sqllint.Check(query), query)
	return plan
}

func TestCompile_NoTables(t *testing.T) {
	_, err := newTestCompiler(t).Compile(report.Request{})
	require.ErrorIs(t, err, report.ErrNoTables)
}

func TestCompile_InvalidRequest(t *testing.T) {
	_, err := newTestCompiler(t).Compile(report.Request{
		Tables:  []report.TableRef{{Name: "sales"}},
		Columns: report.ColumnList{"sales.id; DROP TABLE sales"},
	})
	require.ErrorIs(t, err, report.ErrInvalidRequest)
}

func TestCompile_AggregationScenario(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{
		"tables": [{"name": "sales"}, {"name": "stores"}],
		"columns": [{"column": "sales.id"}],
		"aggregation": [{"func": "SUM", "column": "sales.total"}],
		"filters": [{"column": "stores.id", "operator": "=", "value": 5}]
	}`)

	parts := plan.Parts()
	assert.Equal(t, "SUM(sales.total) AS SUM_sales_total,\n\tsales.id AS sales_id", parts.Select)
	assert.Equal(t, "sales\nINNER JOIN stores ON sales.store_id = stores.id", parts.From)
	assert.Equal(t, "stores.id = 5", parts.Where)
	assert.Equal(t, "sales.id", parts.GroupBy)
	assert.Empty(t, parts.Having)
	assert.Empty(t, parts.OrderBy)
	assert.Empty(t, plan.Dropped)

	assert.Equal(t,
		"SELECT SUM(sales.total) AS SUM_sales_total,\n\tsales.id AS sales_id\n"+
			"FROM sales\nINNER JOIN stores ON sales.store_id = stores.id\n"+
			"WHERE stores.id = 5\n"+
			"GROUP BY sales.id;",
		plan.Statement())

	query, args, err := plan.Parameterized()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT SUM(sales.total) AS SUM_sales_total, sales.id AS sales_id "+
			"FROM sales INNER JOIN stores ON sales.store_id = stores.id "+
			"WHERE stores.id = $1 GROUP BY sales.id",
		query)
	assert.Equal(t, []any{"5"}, args)
}

func TestCompile_HavingScenario(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{
		"tables": ["sales", "stores"],
		"columns": ["stores.name"],
		"aggregation": [{"func": "sum", "column": "sales.total"}],
		"having": [{"aggregation": "SUM(sales.total)", "operator": ">", "value": 1000}]
	}`)

	assert.Equal(t, "SUM(sales.total) > 1000", plan.Parts().Having)
	assert.Contains(t, plan.Statement(), "\nHAVING SUM(sales.total) > 1000")

	query, args, err := plan.Parameterized()
	require.NoError(t, err)
	assert.Contains(t, query, "HAVING SUM(sales.total) > $1")
	assert.Equal(t, []any{"1000"}, args)
}

func TestCompile_HavingStringValuesUseCodec(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{
		"tables": ["sales"],
		"columns": ["sales.status"],
		"aggregation": [{"func": "COUNT", "column": "sales.id"}],
		"having": [
			{"aggregation": "COUNT(sales.id)", "operator": ">=", "value": "10"},
			{"aggregation": "max(sales.status)", "operator": "!=", "value": "it's"}
		]
	}`)
	assert.Equal(t, "COUNT(sales.id) >= 10 AND MAX(sales.status) <> 'it''s'", plan.Parts().Having)
}

func TestCompile_HavingRawString(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{
		"tables": ["sales"],
		"columns": ["sales.status"],
		"aggregation": [{"func": "COUNT", "column": "sales.id"}],
		"having": "COUNT(sales.id) > 2"
	}`)
	assert.Equal(t, "COUNT(sales.id) > 2", plan.Parts().Having)
}

func TestCompile_JoinWithoutRelationIsDropped(t *testing.T) {
	var logs bytes.Buffer
	c := newTestCompiler(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	plan := compileJSON(t, c, `{"tables": ["sales", "brands"]}`)

	assert.Equal(t, "sales", plan.Parts().From)
	require.Len(t, plan.Dropped, 1)
	d := plan.Dropped[0]
	assert.Equal(t, DroppedTable, d.Kind)
	assert.Equal(t, "brands", d.Name)
	assert.Contains(t, d.Reason, "no relation between brands and sales")
	assert.Contains(t, d.Reason, "; add channels first")
	assert.Contains(t, logs.String(), "join skipped")
	assert.Contains(t, logs.String(), "table=brands")
}

func TestCompile_JoinScansIncludedTablesInOrder(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{"tables": ["stores", "customers", "sales"]}`)

	assert.Equal(t,
		"stores\n"+
			"INNER JOIN customers ON customers.store_id = stores.id\n"+
			"INNER JOIN sales ON sales.store_id = stores.id",
		plan.Parts().From)
}

func TestCompile_JoinLaterTableConnectsThroughEarlierJoin(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{"tables": ["sales", "stores", "brands"]}`)

	assert.Equal(t,
		"sales\n"+
			"INNER JOIN stores ON sales.store_id = stores.id\n"+
			"INNER JOIN brands ON stores.brand_id = brands.id",
		plan.Parts().From)
	assert.Empty(t, plan.Dropped)
}

func TestCompile_JoinTypes(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t, WithDefaultJoin(report.LeftJoin)), `{
		"tables": ["sales", {"name": "stores", "type": "RIGHT JOIN"}, "channels"]
	}`)
	assert.Equal(t,
		"sales\n"+
			"RIGHT JOIN stores ON sales.store_id = stores.id\n"+
			"LEFT JOIN channels ON sales.channel_id = channels.id",
		plan.Parts().From)

	plan = compileJSON(t, newTestCompiler(t), `{"tables": ["sales", "stores"], "joinType": "full"}`)
	assert.Contains(t, plan.Parts().From, "FULL JOIN stores")
}

func TestCompile_ExplicitOn(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{
		"tables": ["sales", {"name": "brands", "on": {"left": "sales.sub_brand_id", "right": "brands.id"}}]
	}`)
	assert.Equal(t, "sales\nINNER JOIN brands ON sales.sub_brand_id = brands.id", plan.Parts().From)
	assert.Empty(t, plan.Dropped)
}

func TestCompile_DuplicateTable(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{"tables": ["sales", "stores", "sales"]}`)

	assert.Equal(t, "sales\nINNER JOIN stores ON sales.store_id = stores.id", plan.Parts().From)
	require.Len(t, plan.DroppedOf(DroppedTable), 1)
	assert.Equal(t, "duplicate table", plan.Dropped[0].Reason)
}

func TestCompile_SelectShapes(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{"tables": ["sales"]}`)
	assert.Equal(t, "*", plan.Parts().Select)
	assert.Equal(t, "SELECT *\nFROM sales;", plan.Statement())

	plan = compileJSON(t, newTestCompiler(t), `{"tables": ["sales"], "columns": ["status", "sales.id"]}`)
	assert.Equal(t, "status,\n\tsales.id AS sales_id", plan.Parts().Select)
	assert.Empty(t, plan.Parts().GroupBy)
}

func TestCompile_ExplicitGroupByWins(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{
		"tables": ["sales"],
		"columns": ["sales.id", "sales.status"],
		"aggregation": [{"func": "COUNT", "column": "sales.id"}],
		"groupBy": "sales.id, sales.status"
	}`)
	assert.Equal(t, "sales.id, sales.status", plan.Parts().GroupBy)
}

func TestCompile_HavingCountStar(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{
		"tables": ["sales"],
		"columns": ["sales.status"],
		"having": [{"aggregation": "count(*)", "operator": ">", "value": 2}]
	}`)
	assert.Equal(t, "COUNT(*) > 2", plan.Parts().Having)
}

func TestCompile_OrderBy(t *testing.T) {
	plan := compileJSON(t, newTestCompiler(t), `{
		"tables": ["sales"],
		"columns": ["sales.total"],
		"orderBy": [{"column": "sales.id", "direction": "DESC"}]
	}`)
	assert.Empty(t, plan.Parts().OrderBy)
	require.Len(t, plan.Dropped, 1)
	assert.Equal(t, Dropped{Kind: DroppedOrderBy, Name: "sales.id", Reason: "column is not selected"}, plan.Dropped[0])

	plan = compileJSON(t, newTestCompiler(t), `{
		"tables": ["sales"],
		"columns": ["sales.status"],
		"aggregation": [{"func": "SUM", "column": "sales.total"}],
		"orderBy": [{"column": "SUM_sales_total", "direction": "desc"}, {"column": "sales.status"}]
	}`)
	assert.Equal(t, "SUM_sales_total DESC, sales.status ASC", plan.Parts().OrderBy)
	assert.Empty(t, plan.Dropped)

	plan = compileJSON(t, newTestCompiler(t), `{
		"tables": ["sales"],
		"columns": ["sales.status"],
		"aggregation": [{"func": "SUM", "column": "sales.total"}],
		"orderBy": [{"column": "AVG_sales_total"}, {"column": "sales.status"}]
	}`)
	assert.Equal(t, "sales.status ASC", plan.Parts().OrderBy)
	require.Len(t, plan.Dropped, 1)
	assert.Equal(t, "AVG_sales_total", plan.Dropped[0].Name)
}
