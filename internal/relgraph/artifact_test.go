package relgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	g, err := Embedded()
	require.NoError(t, err)

	assert.Len(t, g.ForeignKeys(), 38)
	assert.Len(t, g.Tables(), 19)

	tests := []struct {
		a, b string
		want string
	}{
		{"sales", "stores", "sales.store_id = stores.id"},
		{"stores", "sales", "sales.store_id = stores.id"},
		{"brands", "sub_brands", "sub_brands.brand_id = brands.id"},
		{"delivery_sales", "delivery_addresses", "delivery_addresses.delivery_sale_id = delivery_sales.id"},
		{"item_product_sales", "item_item_product_sales", "item_item_product_sales.item_product_sale_id = item_product_sales.id"},
		{"payments", "payment_types", "payments.payment_type_id = payment_types.id"},
	}
	for _, tt := range tests {
		e, ok := g.Edge(tt.a, tt.b)
		require.True(t, ok, "%s <-> %s", tt.a, tt.b)
		assert.Equal(t, tt.want, e.String())
	}

	_, ok := g.Edge("brands", "sales")
	assert.False(t, ok)
}

func TestEmbedded_FollowsNamingConvention(t *testing.T) {
	for _, fk := range MustEmbedded().ForeignKeys() {
		assert.Equal(t, ConventionalColumn(fk.References), fk.Column, fk.String())
	}
}

func TestParse_Adjacency(t *testing.T) {
	data := []byte(`
adjacency:
  brands:
    sub_brands: brand_id
  sub_brands:
    brands: brand_id
    sales: sub_brand_id
  categories:
    products: category_id
`)
	g, err := Parse(data)
	require.NoError(t, err)

	assert.ElementsMatch(t, []ForeignKey{
		{Table: "sub_brands", Column: "brand_id", References: "brands", ReferencedColumn: "id"},
		{Table: "sales", Column: "sub_brand_id", References: "sub_brands", ReferencedColumn: "id"},
		{Table: "products", Column: "category_id", References: "categories", ReferencedColumn: "id"},
	}, g.ForeignKeys())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "version: 1\n"},
		{"future version", "version: 9\nforeign_keys:\n  - {table: a, column: b_id, references: b}\n"},
		{"unknown field", "version: 1\nedges: []\n"},
		{"ambiguous adjacency", "adjacency:\n  sales:\n    stores: shop_ref\n"},
		{"not yaml", "foreign_keys: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.ErrorIs(t, err, ErrInvalidGraph)
		})
	}
}

func TestLoadFile_RoundTrip(t *testing.T) {
	out, err := MustEmbedded().YAML()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "relations.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, MustEmbedded().ForeignKeys(), g.ForeignKeys())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestInferOwner(t *testing.T) {
	owner, ref, ok := InferOwner("brands", "sub_brands", "brand_id")
	require.True(t, ok)
	assert.Equal(t, "sub_brands", owner)
	assert.Equal(t, "brands", ref)

	owner, ref, ok = InferOwner("delivery_addresses", "delivery_sales", "delivery_sale_id")
	require.True(t, ok)
	assert.Equal(t, "delivery_addresses", owner)
	assert.Equal(t, "delivery_sales", ref)

	_, _, ok = InferOwner("sales", "stores", "shop_ref")
	assert.False(t, ok)
}
