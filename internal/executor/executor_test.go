package executor_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlreport/internal/compiler"
	"github.com/pthm/sqlreport/internal/executor"
	"github.com/pthm/sqlreport/internal/relgraph"
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/testutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"small int", int64(42), int64(42)},
		{"max safe", int64(executor.MaxSafeInteger), int64(executor.MaxSafeInteger)},
		{"above safe", int64(executor.MaxSafeInteger + 2), "9007199254740993"},
		{"below safe", int64(-executor.MaxSafeInteger - 1), "-9007199254740992"},
		{"uint above safe", uint64(1 << 60), "1152921504606846976"},
		{"bytes", []byte("r-1"), "r-1"},
		{"string", "Centro", "Centro"},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, executor.Normalize(tt.in))
		})
	}
}

func TestSQLState(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"})
	assert.Equal(t, "42P01", executor.SQLState(err))
	assert.Empty(t, executor.SQLState(errors.New("plain")))
}

func compile(t *testing.T, body string) *compiler.Plan {
	t.Helper()
	req, err := report.Parse([]byte(body))
	require.NoError(t, err)
	plan, err := compiler.New(relgraph.MustEmbedded()).Compile(req)
	require.NoError(t, err)
	return plan
}

func TestRun_Aggregation(t *testing.T) {
	ex := executor.New(testutil.DB(t))

	rows, err := ex.Run(context.Background(), compile(t, `{
		"tables": ["sales", "stores"],
		"columns": ["stores.name"],
		"aggregation": [{"func": "COUNT", "column": "sales.id"}],
		"filters": [{"column": "sales.sale_status_desc", "operator": "=", "value": "COMPLETED"}],
		"orderBy": [{"column": "stores.name"}]
	}`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Centro", rows[0]["stores_name"])
	assert.Equal(t, int64(2), rows[0]["COUNT_sales_id"])
	assert.Equal(t, "O'Higgins", rows[1]["stores_name"])
}

func TestRun_BigIntAndBytes(t *testing.T) {
	ex := executor.New(testutil.DB(t))

	rows, err := ex.Run(context.Background(), compile(t, `{
		"tables": ["sales"],
		"columns": ["sales.id", "sales.people_quantity", "sales.receipt"],
		"filters": [{"column": "sales.id", "operator": "IN", "value": [1, 2]}],
		"orderBy": [{"column": "sales.id"}]
	}`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "r-1", rows[0]["sales_receipt"])
	assert.Equal(t, "9007199254740993", rows[1]["sales_people_quantity"])

	body, err := json.Marshal(rows[1])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"sales_people_quantity":"9007199254740993"`)
}

func TestRun_LikeOnDateColumn(t *testing.T) {
	ex := executor.New(testutil.DB(t))

	rows, err := ex.Run(context.Background(), compile(t, `{
		"tables": ["sales"],
		"columns": ["sales.id"],
		"filters": [{"column": "sales.created_at", "operator": "LIKE", "value": "2024-07"}]
	}`))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRun_MaxRows(t *testing.T) {
	ex := executor.New(testutil.DB(t), executor.WithMaxRows(1))

	rows, err := ex.Run(context.Background(), compile(t, `{"tables": ["sales"], "columns": ["sales.id"]}`))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRun_ExecutionError(t *testing.T) {
	ex := executor.New(testutil.EmptyDB(t))

	_, err := ex.Run(context.Background(), compile(t, `{"tables": ["sales"]}`))
	require.ErrorIs(t, err, executor.ErrExecution)
	assert.Equal(t, "42P01", executor.SQLState(err))
}
