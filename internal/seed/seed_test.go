package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cellgrid/packdb/internal/config"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog()
	require.NoError(t, err)
	require.Len(t, cat.Domains, 7)

	names := make([]string, len(cat.Domains))
	for i, d := range cat.Domains {
		names[i] = d.Name
		assert.Equal(t, i+1, d.SortOrder)
		assert.NotEmpty(t, d.Fields, d.Name)
	}
	assert.Equal(t, []string{
		"Cell", "Cellblock rest", "E/E", "Housing",
		"Thermal Management", "Busbar", "Other components",
	}, names)

	cell := cat.Domains[0]
	require.Len(t, cell.Fields, 7)
	format := cell.Fields[1]
	assert.Equal(t, "cell_format", format.Name)
	assert.Equal(t, model.DataTypeSelect, format.DataType)
	assert.Contains(t, format.SelectOptions, "Cylindrical 4680")

	capacity := cell.Fields[3]
	assert.Equal(t, model.DataTypeNumber, capacity.DataType)
	require.NotNil(t, capacity.Unit)
	assert.Equal(t, "Ah", *capacity.Unit)
}

func TestRunSeedsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	cfg := config.SeedConfig{
		AdminEmail: "admin@packdb.local",
		AdminName:  "Administrator",
		AdminToken: "bootstrap-token",
	}
	require.NoError(t, Run(ctx, st, cfg))

	domains, err := st.ListDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 7)
	assert.Equal(t, "Cell", domains[0].Name)
	assert.True(t, domains[0].IsDefault)

	fields, err := st.ListAllFields(ctx)
	require.NoError(t, err)
	assert.Len(t, fields, 38)

	admin, err := st.GetUserByToken(ctx, "bootstrap-token")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	// Second run changes nothing.
	require.NoError(t, Run(ctx, st, cfg))
	domains, err = st.ListDomains(ctx)
	require.NoError(t, err)
	assert.Len(t, domains, 7)
	fields, err = st.ListAllFields(ctx)
	require.NoError(t, err)
	assert.Len(t, fields, 38)
}
