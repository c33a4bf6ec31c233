package relgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := New([]ForeignKey{
		{Table: "sales", Column: "store_id", References: "stores"},
		{Table: "stores", Column: "brand_id", References: "brands"},
		{Table: "product_sales", Column: "sale_id", References: "sales"},
		{Table: "sales", Column: "origin_store_id", References: "stores"},
		{Table: "categories", Column: "parent_id", References: "categories"},
	})
	require.NoError(t, err)
	return g
}

func TestGraph_EdgeIsSymmetric(t *testing.T) {
	g := testGraph(t)

	forward, ok := g.Edge("sales", "stores")
	require.True(t, ok)
	backward, ok := g.Edge("stores", "sales")
	require.True(t, ok)

	assert.Equal(t, forward, backward)
	assert.Equal(t, Edge{Owner: "sales", Column: "store_id", Referenced: "stores", ReferencedColumn: "id"}, forward)
	assert.Equal(t, "sales.store_id = stores.id", forward.String())
	assert.Equal(t, "stores", forward.Other("sales"))
	assert.Equal(t, "sales", forward.Other("stores"))
}

func TestGraph_FirstKeyWinsForPair(t *testing.T) {
	g := testGraph(t)

	e, ok := g.Edge("stores", "sales")
	require.True(t, ok)
	assert.Equal(t, "store_id", e.Column)
	assert.Len(t, g.ForeignKeys(), 5)
}

func TestGraph_SelfReferenceHasNoEdge(t *testing.T) {
	g := testGraph(t)

	_, ok := g.Edge("categories", "categories")
	assert.False(t, ok)
	assert.Contains(t, g.Tables(), "categories")
}

func TestGraph_NoEdge(t *testing.T) {
	g := testGraph(t)

	_, ok := g.Edge("brands", "sales")
	assert.False(t, ok)
	_, ok = g.Edge("sales", "unknown")
	assert.False(t, ok)
}

func TestGraph_Neighbors(t *testing.T) {
	g := testGraph(t)
	assert.Equal(t, []string{"product_sales", "stores"}, g.Neighbors("sales"))
	assert.Empty(t, g.Neighbors("unknown"))
}

func TestGraph_Path(t *testing.T) {
	g := testGraph(t)

	path := g.Path("product_sales", "brands")
	require.Len(t, path, 3)
	assert.Equal(t, "product_sales.sale_id = sales.id", path[0].String())
	assert.Equal(t, "sales.store_id = stores.id", path[1].String())
	assert.Equal(t, "stores.brand_id = brands.id", path[2].String())

	assert.Nil(t, g.Path("sales", "sales"))
	assert.Nil(t, g.Path("sales", "unknown"))
}

func TestNew_RejectsInvalidIdentifiers(t *testing.T) {
	_, err := New([]ForeignKey{{Table: "sales; drop", Column: "store_id", References: "stores"}})
	require.ErrorIs(t, err, ErrInvalidGraph)

	_, err = New([]ForeignKey{{Table: "sales", Column: "store_id", References: "stores", ReferencedColumn: "a.b"}})
	require.ErrorIs(t, err, ErrInvalidGraph)
}

func TestGraph_Components(t *testing.T) {
	g := testGraph(t)

	assert.Equal(t, [][]string{
		{"brands", "product_sales", "sales", "stores"},
		{"categories"},
	}, g.Components())

	assert.Len(t, MustEmbedded().Components(), 1)
}
