package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/sqlreport/internal/testutil"
)

func TestAttributes_UnknownTablesAreNotCached(t *testing.T) {
	c := New(testutil.DB(t))
	ctx := context.Background()

	for _, name := range []string{"missing", "audit_log", "stores_v2"} {
		attrs, err := c.Attributes(ctx, name)
		require.NoError(t, err)
		assert.Empty(t, attrs)
	}
	assert.Equal(t, 0, c.attributes.Keys())

	_, err := c.Attributes(ctx, "stores")
	require.NoError(t, err)
	assert.Equal(t, 1, c.attributes.Keys())
}
