package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cellgrid/packdb/internal/apperr"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestUser(t *testing.T, st *SQLiteStore, email string) *model.User {
	t.Helper()
	u := &model.User{
		Email:       email,
		DisplayName: "Test User",
		Role:        model.RoleMember,
		APIToken:    "token-" + email,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func strPtr(s string) *string { return &s }

func newTestPack(t *testing.T, st *SQLiteStore, userID int64, oem, mdl string, year int) *model.Pack {
	t.Helper()
	p := &model.Pack{
		OEM:       oem,
		Model:     mdl,
		Year:      year,
		Variant:   strPtr("Long Range"),
		Market:    strPtr("EU"),
		CreatedBy: &userID,
	}
	require.NoError(t, st.CreatePack(context.Background(), p))
	return p
}

func TestUserRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, st, "alice@example.com")
	assert.Positive(t, u.ID)

	byToken, err := st.GetUserByToken(ctx, u.APIToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byToken.ID)
	assert.Equal(t, "alice@example.com", byToken.Email)

	byEmail, err := st.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = st.GetUserByToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	dup := &model.User{Email: u.Email, DisplayName: "Dup", Role: model.RoleMember, APIToken: "other"}
	assert.ErrorIs(t, st.CreateUser(ctx, dup), apperr.ErrConflict)
}

func TestPackCRUD(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := newTestUser(t, st, "bob@example.com")

	pack := newTestPack(t, st, user.ID, "VW", "ID.4", 2024)
	require.Positive(t, pack.ID)
	assert.True(t, pack.IsActive)

	got, err := st.GetPack(ctx, pack.ID)
	require.NoError(t, err)
	assert.Equal(t, "VW", got.OEM)
	require.NotNil(t, got.Variant)
	assert.Equal(t, "Long Range", *got.Variant)
	require.NotNil(t, got.CreatedByName)
	assert.Equal(t, "Test User", *got.CreatedByName)
	assert.Nil(t, got.FuelType)

	got.Platform = strPtr("MEB")
	require.NoError(t, st.UpdatePack(ctx, got))
	got, err = st.GetPack(ctx, pack.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Platform)
	assert.Equal(t, "MEB", *got.Platform)

	require.NoError(t, st.SoftDeletePack(ctx, pack.ID))
	_, err = st.GetPack(ctx, pack.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, st.SoftDeletePack(ctx, pack.ID), apperr.ErrNotFound)
}

func TestPackIdentityConflict(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := newTestUser(t, st, "carol@example.com")

	newTestPack(t, st, user.ID, "BMW", "i4", 2023)
	dup := &model.Pack{
		OEM:       "BMW",
		Model:     "i4",
		Year:      2023,
		Variant:   strPtr("Long Range"),
		Market:    strPtr("EU"),
		CreatedBy: &user.ID,
	}
	assert.ErrorIs(t, st.CreatePack(ctx, dup), apperr.ErrConflict)

	// Different variant is a different identity.
	other := &model.Pack{OEM: "BMW", Model: "i4", Year: 2023, Variant: strPtr("M50"), Market: strPtr("EU"), CreatedBy: &user.ID}
	assert.NoError(t, st.CreatePack(ctx, other))

	// NULL variant collides with NULL variant.
	a := &model.Pack{OEM: "BMW", Model: "iX", Year: 2024, CreatedBy: &user.ID}
	require.NoError(t, st.CreatePack(ctx, a))
	b := &model.Pack{OEM: "BMW", Model: "iX", Year: 2024, CreatedBy: &user.ID}
	assert.ErrorIs(t, st.CreatePack(ctx, b), apperr.ErrConflict)
}

func TestListPacksFilterSearchAndPaging(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := newTestUser(t, st, "dave@example.com")

	newTestPack(t, st, user.ID, "Tesla", "Model 3", 2023)
	newTestPack(t, st, user.ID, "Tesla", "Model Y", 2024)
	newTestPack(t, st, user.ID, "VW", "ID.3", 2023)

	page, err := st.ListPacks(ctx, model.PackFilter{OEM: "Tesla"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 2)

	page, err = st.ListPacks(ctx, model.PackFilter{Search: "ID.3"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "VW", page.Items[0].OEM)

	page, err = st.ListPacks(ctx, model.PackFilter{Page: 2, PageSize: 2, SortBy: "year", SortDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)

	// Soft-deleted packs drop out of listings.
	require.NoError(t, st.SoftDeletePack(ctx, page.Items[0].ID))
	page, err = st.ListPacks(ctx, model.PackFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestDomainAndFieldCatalog(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := newTestUser(t, st, "erin@example.com")

	domain := &model.Domain{Name: "Cell", SortOrder: 1, IsDefault: true, CreatedBy: &user.ID}
	require.NoError(t, st.CreateDomain(ctx, domain))
	require.Positive(t, domain.ID)

	dup := &model.Domain{Name: "Cell"}
	assert.ErrorIs(t, st.CreateDomain(ctx, dup), apperr.ErrConflict)

	field := &model.Field{
		DomainID:      domain.ID,
		Name:          "cell_format",
		DisplayName:   "Cell Format",
		DataType:      model.DataTypeSelect,
		SelectOptions: []string{"Prismatic", "Pouch"},
		SortOrder:     2,
		CreatedBy:     &user.ID,
	}
	require.NoError(t, st.CreateField(ctx, field))

	numField := &model.Field{
		DomainID:    domain.ID,
		Name:        "cell_capacity_ah",
		DisplayName: "Cell Capacity",
		Unit:        strPtr("Ah"),
		DataType:    model.DataTypeNumber,
		SortOrder:   1,
	}
	require.NoError(t, st.CreateField(ctx, numField))

	dupField := &model.Field{DomainID: domain.ID, Name: "cell_format", DisplayName: "x", DataType: model.DataTypeText}
	assert.ErrorIs(t, st.CreateField(ctx, dupField), apperr.ErrConflict)

	fields, err := st.ListFields(ctx, domain.ID)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	// sort_order governs listing order.
	assert.Equal(t, "cell_capacity_ah", fields[0].Name)
	assert.Equal(t, []string{"Prismatic", "Pouch"}, fields[1].SelectOptions)

	got, err := st.GetField(ctx, field.ID)
	require.NoError(t, err)
	got.DisplayName = "Format"
	got.SelectOptions = append(got.SelectOptions, "Cylindrical 4680")
	require.NoError(t, st.UpdateField(ctx, got))
	got, err = st.GetField(ctx, field.ID)
	require.NoError(t, err)
	assert.Equal(t, "Format", got.DisplayName)
	assert.Len(t, got.SelectOptions, 3)

	require.NoError(t, st.SoftDeleteField(ctx, field.ID))
	_, err = st.GetField(ctx, field.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	fields, err = st.ListAllFields(ctx)
	require.NoError(t, err)
	assert.Len(t, fields, 1)
}

func TestValueLifecycleAndComments(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := newTestUser(t, st, "frank@example.com")
	pack := newTestPack(t, st, user.ID, "Hyundai", "Ioniq 5", 2023)

	domain := &model.Domain{Name: "Other components", SortOrder: 7}
	require.NoError(t, st.CreateDomain(ctx, domain))
	field := &model.Field{DomainID: domain.ID, Name: "gross_capacity_kwh", DisplayName: "Gross Capacity", Unit: strPtr("kWh"), DataType: model.DataTypeNumber}
	require.NoError(t, st.CreateField(ctx, field))

	num := 77.4
	value := &model.Value{
		PackID:        pack.ID,
		FieldID:       field.ID,
		ValueText:     strPtr("77.4"),
		ValueNumeric:  &num,
		SourceType:    source.Teardown,
		SourceDetail:  "Munro teardown report",
		ContributedBy: user.ID,
	}
	require.NoError(t, st.CreateValue(ctx, value))
	require.Positive(t, value.ID)

	got, err := st.GetValue(ctx, value.ID)
	require.NoError(t, err)
	assert.Equal(t, source.Teardown, got.SourceType)
	require.NotNil(t, got.ValueNumeric)
	assert.InDelta(t, 77.4, *got.ValueNumeric, 0.001)
	require.NotNil(t, got.ContributorName)
	assert.Equal(t, "Test User", *got.ContributorName)
	assert.Zero(t, got.CommentCount)

	comment := &model.Comment{ValueID: value.ID, AuthorID: user.ID, Text: "Matches the label on the housing."}
	require.NoError(t, st.CreateComment(ctx, comment))
	comment2 := &model.Comment{ValueID: value.ID, AuthorID: user.ID, Text: "Confirmed against the OEM sheet."}
	require.NoError(t, st.CreateComment(ctx, comment2))

	got, err = st.GetValue(ctx, value.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentCount)

	comments, err := st.ListComments(ctx, value.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Matches the label on the housing.", comments[0].Text)
	require.NotNil(t, comments[0].AuthorName)
	assert.Equal(t, "Test User", *comments[0].AuthorName)

	got.ValueText = strPtr("74")
	n := 74.0
	got.ValueNumeric = &n
	got.SourceDetail = "corrected reading"
	require.NoError(t, st.UpdateValue(ctx, got))
	got, err = st.GetValue(ctx, value.ID)
	require.NoError(t, err)
	assert.Equal(t, "corrected reading", got.SourceDetail)
	assert.InDelta(t, 74.0, *got.ValueNumeric, 0.001)

	values, err := st.ListPackValues(ctx, pack.ID)
	require.NoError(t, err)
	assert.Len(t, values, 1)

	require.NoError(t, st.SoftDeleteValue(ctx, value.ID))
	_, err = st.GetValue(ctx, value.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	values, err = st.ListPackValues(ctx, pack.ID)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestPriorityRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user := newTestUser(t, st, "grace@example.com")

	// Never stored: nil, not an error, not materialized.
	order, err := st.GetPriority(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, order)

	custom := []source.Kind{
		source.User, source.Teardown, source.A2Mac1, source.OEM,
		source.Regulatory, source.CAD, source.Calculated, source.Press,
	}
	require.NoError(t, st.SetPriority(ctx, user.ID, custom))
	order, err = st.GetPriority(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, custom, order)

	// Upsert replaces.
	require.NoError(t, st.SetPriority(ctx, user.ID, source.DefaultOrder()))
	order, err = st.GetPriority(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, source.DefaultOrder(), order)
}
