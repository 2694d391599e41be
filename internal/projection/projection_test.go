package projection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cellgrid/packdb/internal/apperr"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
	"github.com/cellgrid/packdb/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fixture struct {
	store   store.Store
	svc     *Service
	user    *model.User
	packA   *model.Pack
	packB   *model.Pack
	domains map[string]*model.Domain
	fields  map[string]*model.Field
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	f := &fixture{
		store:   st,
		svc:     NewService(st),
		domains: map[string]*model.Domain{},
		fields:  map[string]*model.Field{},
	}

	f.user = &model.User{Email: "tester@example.com", DisplayName: "Tester", Role: model.RoleMember, APIToken: "t"}
	require.NoError(t, st.CreateUser(ctx, f.user))

	f.packA = &model.Pack{OEM: "Tesla", Model: "Model Y", Year: 2024, CreatedBy: &f.user.ID}
	require.NoError(t, st.CreatePack(ctx, f.packA))
	f.packB = &model.Pack{OEM: "VW", Model: "ID.4", Year: 2024, CreatedBy: &f.user.ID}
	require.NoError(t, st.CreatePack(ctx, f.packB))

	for i, name := range []string{"Cell", "Housing"} {
		d := &model.Domain{Name: name, SortOrder: i + 1, IsDefault: true}
		require.NoError(t, st.CreateDomain(ctx, d))
		f.domains[name] = d
	}
	addField := func(domain, name, dataType string) {
		fd := &model.Field{
			DomainID:    f.domains[domain].ID,
			Name:        name,
			DisplayName: name,
			DataType:    dataType,
		}
		require.NoError(t, st.CreateField(ctx, fd))
		f.fields[name] = fd
	}
	addField("Cell", "chemistry", model.DataTypeText)
	addField("Cell", "cell_capacity_ah", model.DataTypeNumber)
	addField("Housing", "pack_weight_kg", model.DataTypeNumber)
	return f
}

func (f *fixture) addValue(t *testing.T, pack *model.Pack, fieldName, text string, kind source.Kind) *model.Value {
	t.Helper()
	v := &model.Value{
		PackID:        pack.ID,
		FieldID:       f.fields[fieldName].ID,
		ValueText:     strPtr(text),
		SourceType:    kind,
		SourceDetail:  "test",
		ContributedBy: f.user.ID,
	}
	require.NoError(t, f.store.CreateValue(context.Background(), v))
	return v
}

func TestDetailRetainsEmptyDomainsAndFields(t *testing.T) {
	f := newFixture(t)
	f.addValue(t, f.packA, "chemistry", "NMC811", source.Teardown)

	detail, err := f.svc.Detail(context.Background(), f.packA.ID, source.DefaultOrder())
	require.NoError(t, err)
	assert.Equal(t, f.packA.ID, detail.ID)
	require.Len(t, detail.Domains, 2)

	cell := detail.Domains[0]
	assert.Equal(t, "Cell", cell.DomainName)
	require.Len(t, cell.Fields, 2)
	require.NotNil(t, cell.Fields[0].ResolvedValue)
	assert.Equal(t, "NMC811", *cell.Fields[0].ResolvedValue.ValueText)
	// Valueless field still listed, with an empty resolution.
	assert.Nil(t, cell.Fields[1].ResolvedValue)
	assert.Empty(t, cell.Fields[1].AllValues)

	// Housing has no values at all but still appears.
	assert.Equal(t, "Housing", detail.Domains[1].DomainName)
	require.Len(t, detail.Domains[1].Fields, 1)
}

func TestDetailResolvesPerPriorityOrder(t *testing.T) {
	f := newFixture(t)
	f.addValue(t, f.packA, "chemistry", "NMC811", source.Press)
	f.addValue(t, f.packA, "chemistry", "LFP", source.User)

	detail, err := f.svc.Detail(context.Background(), f.packA.ID, source.DefaultOrder())
	require.NoError(t, err)
	chem := detail.Domains[0].Fields[0]
	assert.Equal(t, "NMC811", *chem.ResolvedValue.ValueText)
	assert.Equal(t, 1, chem.AlternativeCount)

	userFirst := []source.Kind{
		source.User, source.Teardown, source.A2Mac1, source.OEM,
		source.Regulatory, source.CAD, source.Calculated, source.Press,
	}
	detail, err = f.svc.Detail(context.Background(), f.packA.ID, userFirst)
	require.NoError(t, err)
	assert.Equal(t, "LFP", *detail.Domains[0].Fields[0].ResolvedValue.ValueText)
}

func TestDetailMissingPack(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Detail(context.Background(), 9999, source.DefaultOrder())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCompareUnionWithNulls(t *testing.T) {
	f := newFixture(t)
	f.addValue(t, f.packA, "chemistry", "NMC811", source.Teardown)
	f.addValue(t, f.packB, "pack_weight_kg", "490", source.OEM)

	result, err := f.svc.Compare(context.Background(),
		[]int64{f.packA.ID, f.packB.ID}, source.DefaultOrder())
	require.NoError(t, err)
	require.Len(t, result.Packs, 2)
	assert.Equal(t, f.packA.ID, result.Packs[0].ID)

	// Both domains survive: each holds one populated field.
	require.Len(t, result.Domains, 2)

	cell := result.Domains[0]
	require.Len(t, cell.Fields, 1)
	chem := cell.Fields[0]
	assert.Equal(t, "chemistry", chem.FieldName)
	keyA, keyB := "1", "2"
	require.NotNil(t, chem.ValuesByPack[keyA])
	assert.Equal(t, "NMC811", *chem.ValuesByPack[keyA].ValueText)
	null, present := chem.ValuesByPack[keyB]
	assert.True(t, present)
	assert.Nil(t, null)

	housing := result.Domains[1]
	require.Len(t, housing.Fields, 1)
	assert.Equal(t, "pack_weight_kg", housing.Fields[0].FieldName)
	assert.Nil(t, housing.Fields[0].ValuesByPack[keyA])
	require.NotNil(t, housing.Fields[0].ValuesByPack[keyB])
}

func TestCompareDropsFullyEmptyFieldsAndDomains(t *testing.T) {
	f := newFixture(t)
	f.addValue(t, f.packA, "chemistry", "NMC811", source.Teardown)

	result, err := f.svc.Compare(context.Background(),
		[]int64{f.packA.ID, f.packB.ID}, source.DefaultOrder())
	require.NoError(t, err)

	// Only Cell.chemistry is populated anywhere; the capacity field and the
	// whole Housing domain drop out.
	require.Len(t, result.Domains, 1)
	assert.Equal(t, "Cell", result.Domains[0].DomainName)
	require.Len(t, result.Domains[0].Fields, 1)
	assert.Equal(t, "chemistry", result.Domains[0].Fields[0].FieldName)
}

func TestCompareMissingPackFailsWhole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Compare(context.Background(),
		[]int64{f.packA.ID, 9999}, source.DefaultOrder())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
