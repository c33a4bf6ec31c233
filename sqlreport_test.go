package sqlreport_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlreport"
)

func TestPreview(t *testing.T) {
	req, err := sqlreport.ParseRequest([]byte(`{
		"tables": [{"name": "sales"}, {"name": "stores"}],
		"columns": [{"column": "stores.name"}],
		"aggregation": [{"func": "SUM", "column": "sales.total_amount"}],
		"filters": [{"column": "stores.name", "operator": "LIKE", "value": "centro"}],
		"orderBy": [{"column": "stores.name", "direction": "DESC"}]
	}`))
	require.NoError(t, err)

	got, err := sqlreport.Preview(req)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"SELECT SUM(sales.total_amount) AS SUM_sales_total_amount,",
		"\tstores.name AS stores_name",
		"FROM sales",
		"INNER JOIN stores ON sales.store_id = stores.id",
		"WHERE stores.name LIKE '%centro%'",
		"GROUP BY stores.name",
		"ORDER BY stores.name DESC;",
	}, "\n"), got)
}

func TestCompile_BuiltRequest(t *testing.T) {
	plan, err := sqlreport.Compile(sqlreport.Request{
		Tables:  []sqlreport.TableRef{{Name: "payments"}, {Name: "payment_types", JoinType: sqlreport.LeftJoin}},
		Columns: sqlreport.ColumnList{"payment_types.description"},
		Filters: []sqlreport.Filter{
			{Column: "payments.value", Operator: ">", Value: sqlreport.Scalar(100)},
			{Column: "payments.sale_id", Operator: "IN", Value: sqlreport.List(1, 2)},
		},
	})
	require.NoError(t, err)

	parts := plan.Parts()
	assert.Equal(t, "payments\nLEFT JOIN payment_types ON payments.payment_type_id = payment_types.id", parts.From)
	assert.Equal(t, "payments.value > 100 AND payments.sale_id IN (1, 2)", parts.Where)
}

func TestCompile_NoTables(t *testing.T) {
	_, err := sqlreport.Compile(sqlreport.Request{})
	assert.True(t, sqlreport.IsNoTablesErr(err))

	_, err = sqlreport.Preview(sqlreport.Request{})
	assert.True(t, sqlreport.IsInvalidRequestErr(err))
}

func TestNewCompiler_CustomGraph(t *testing.T) {
	g, err := sqlreport.NewGraph([]sqlreport.ForeignKey{{Table: "orders", Column: "customer_id", References: "customers"}})
	require.NoError(t, err)

	c := sqlreport.NewCompiler(g, sqlreport.WithDefaultJoin(sqlreport.LeftJoin))
	plan, err := c.Compile(sqlreport.Request{Tables: []sqlreport.TableRef{{Name: "customers"}, {Name: "orders"}}})
	require.NoError(t, err)
	assert.Equal(t, "customers\nLEFT JOIN orders ON orders.customer_id = customers.id", plan.Parts().From)
}

func TestCompile_DottedStringValueIsColumn(t *testing.T) {
	req, err := sqlreport.ParseRequest([]byte(`{
		"tables": ["sales", "stores"],
		"filters": [{"column": "sales.store_id", "operator": "=", "value": "stores.id"}]
	}`))
	require.NoError(t, err)

	plan, err := sqlreport.Compile(req)
	require.NoError(t, err)
	assert.Equal(t, "sales.store_id = stores.id", plan.Parts().Where)

	literal, err := sqlreport.NewCompiler(nil, sqlreport.WithColumnRefInference(false)).Compile(req)
	require.NoError(t, err)
	assert.Equal(t, "sales.store_id = 'Stores.id'", literal.Parts().Where)
}
