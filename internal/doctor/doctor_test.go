package doctor

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlreport/internal/catalog"
	"github.com/pthm/sqlreport/internal/relgraph"
	"github.com/pthm/sqlreport/internal/testutil"
)

type fakeCatalog struct {
	tables []string
	rels   []catalog.Relation
	err    error
}

func (f fakeCatalog) TableNames(context.Context) ([]string, error) { return f.tables, f.err }

func (f fakeCatalog) Relations(context.Context) ([]catalog.Relation, error) { return f.rels, f.err }

func find(t *testing.T, r *Report, category, name string) CheckResult {
	t.Helper()
	for _, c := range r.Checks {
		if c.Category == category && c.Name == name {
			return c
		}
	}
	t.Fatalf("check %s/%s not found", category, name)
	return CheckResult{}
}

func TestRun_EmbeddedGraph(t *testing.T) {
	report, err := New(relgraph.MustEmbedded(), "embedded").Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.HasErrors())
	assert.Equal(t, 0, report.Warnings)
	assert.Equal(t, StatusPass, find(t, report, categoryGraph, "connected").Status)
	assert.Equal(t, StatusPass, find(t, report, categoryGraph, "naming").Status)
	assert.Contains(t, find(t, report, categoryCompiler, "joins").Message, "All 38 join statements parse")
}

func TestRun_DisconnectedAndOddNames(t *testing.T) {
	g, err := relgraph.New([]relgraph.ForeignKey{
		{Table: "sales", Column: "store_id", References: "stores"},
		{Table: "payments", Column: "kind", References: "payment_types"},
	})
	require.NoError(t, err)

	report, err := New(g, "test.yaml").Run(context.Background())
	require.NoError(t, err)

	connected := find(t, report, categoryGraph, "connected")
	assert.Equal(t, StatusWarn, connected.Status)
	assert.Equal(t, "payment_types, payments\nsales, stores", connected.Details)

	naming := find(t, report, categoryGraph, "naming")
	assert.Equal(t, StatusWarn, naming.Status)
	assert.Equal(t, "payments.kind -> payment_types.id (expected payment_type_id)", naming.Details)
}

func TestRun_EmptyGraph(t *testing.T) {
	g, err := relgraph.New(nil)
	require.NoError(t, err)

	report, err := New(g, "empty.yaml").Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasErrors())
	assert.Equal(t, StatusFail, find(t, report, categoryGraph, "loaded").Status)
}

func TestRun_DatabaseUnavailable(t *testing.T) {
	d := New(relgraph.MustEmbedded(), "embedded", WithCatalog(fakeCatalog{err: catalog.ErrCatalog}))

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasErrors())
	assert.Equal(t, StatusFail, find(t, report, categoryDatabase, "connection").Status)
}

func TestRun_Drift(t *testing.T) {
	g, err := relgraph.New([]relgraph.ForeignKey{
		{Table: "sales", Column: "store_id", References: "stores"},
		{Table: "sales", Column: "channel_id", References: "channels"},
		{Table: "coupons", Column: "brand_id", References: "brands"},
	})
	require.NoError(t, err)

	cat := fakeCatalog{
		tables: []string{"brands", "channels", "sales", "stores"},
		rels: []catalog.Relation{
			{Table: "sales", RelatedTable: "stores", Column: "store_id", ReferencedColumn: "id"},
			{Table: "stores", RelatedTable: "brands", Column: "brand_id", ReferencedColumn: "id"},
		},
	}
	report, err := New(g, "test.yaml", WithCatalog(cat)).Run(context.Background())
	require.NoError(t, err)

	tables := find(t, report, categoryDatabase, "tables")
	assert.Equal(t, StatusFail, tables.Status)
	assert.Equal(t, "coupons", tables.Details)

	drift := find(t, report, categoryDatabase, "drift")
	assert.Equal(t, StatusWarn, drift.Status)
	assert.Equal(t,
		"database only: stores.brand_id -> brands.id\n"+
			"graph only:    sales.channel_id -> channels.id",
		drift.Details)
}

func TestReport_Print(t *testing.T) {
	r := &Report{}
	r.AddCheck(CheckResult{Category: categoryGraph, Name: "loaded", Status: StatusPass, Message: "loaded"})
	r.AddCheck(CheckResult{
		Category: categoryDatabase, Name: "drift", Status: StatusWarn,
		Message: "disagree", Details: "graph only: a", FixHint: "update",
	})

	var buf bytes.Buffer
	r.Print(&buf, true)
	out := buf.String()
	assert.Contains(t, out, "Relation Graph\n  ✓ loaded\n")
	assert.Contains(t, out, "  ⚠ disagree\n      graph only: a\n      Fix: update\n")
	assert.Contains(t, out, "Summary: 1 passed, 1 warnings, 0 errors")

	buf.Reset()
	r.Print(&buf, false)
	assert.NotContains(t, buf.String(), "graph only: a")
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "pass", StatusPass.String())
	assert.Equal(t, "✗", StatusFail.Symbol())
	assert.Equal(t, "unknown", Status(7).String())
}

func TestRun_FixtureDatabase(t *testing.T) {
	cat := catalog.New(testutil.DB(t))
	g, err := cat.Graph(context.Background())
	require.NoError(t, err)

	report, err := New(g, "catalog", WithCatalog(cat)).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasErrors())
	assert.Equal(t, StatusPass, find(t, report, categoryDatabase, "drift").Status)

	report, err = New(relgraph.MustEmbedded(), "embedded", WithCatalog(cat)).Run(context.Background())
	require.NoError(t, err)
	// The fixture holds a subset of the embedded schema.
	assert.Equal(t, StatusFail, find(t, report, categoryDatabase, "tables").Status)
	assert.Equal(t, StatusPass, find(t, report, categoryDatabase, "drift").Status)
}
