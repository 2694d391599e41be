package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
	"github.com/cellgrid/packdb/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func createWorkbook(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "packs.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

type importEnv struct {
	store store.Store
	user  *model.User
	im    *Importer
}

func newImportEnv(t *testing.T) *importEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	user := &model.User{Email: "importer@example.com", DisplayName: "Importer", Role: model.RoleMember, APIToken: "tok"}
	require.NoError(t, st.CreateUser(ctx, user))

	domain := &model.Domain{Name: "Cell", SortOrder: 1}
	require.NoError(t, st.CreateDomain(ctx, domain))
	unit := "Ah"
	for _, f := range []*model.Field{
		{DomainID: domain.ID, Name: "chemistry", DisplayName: "Chemistry", DataType: model.DataTypeText, SortOrder: 1},
		{DomainID: domain.ID, Name: "cell_capacity_ah", DisplayName: "Cell Capacity", Unit: &unit, DataType: model.DataTypeNumber, SortOrder: 2},
		{DomainID: domain.ID, Name: "cell_format", DisplayName: "Cell Format", DataType: model.DataTypeSelect, SortOrder: 3,
			SelectOptions: []string{"Prismatic", "Pouch"}},
	} {
		require.NoError(t, st.CreateField(ctx, f))
	}

	return &importEnv{store: st, user: user, im: NewImporter(st)}
}

func TestRunImportsPacksAndValues(t *testing.T) {
	e := newImportEnv(t)
	path := createWorkbook(t, map[string][][]string{
		"Sheet1": {
			{"oem", "model", "year", "variant", "chemistry", "cell_capacity_ah", "cell_format"},
			{"Tesla", "Model 3", "2023", "RWD", "LFP", "161.5", "Prismatic"},
			{"VW", "ID.4", "2024", "", "NMC811", "~78 est", "Pouch"},
		},
	})

	report, err := e.im.Run(context.Background(), path, e.user.ID, Options{
		Sheet:      "Sheet1",
		SourceType: source.Teardown,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 2, report.PacksCreated)
	assert.Equal(t, 6, report.ValuesCreated)
	assert.Empty(t, report.Skipped)

	page, err := e.store.ListPacks(context.Background(), model.PackFilter{OEM: "Tesla"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	values, err := e.store.ListPackValues(context.Background(), page.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, values, 3)
	for _, v := range values {
		assert.Equal(t, source.Teardown, v.SourceType)
	}

	// Unparseable number imports as text with a null numeric.
	page, err = e.store.ListPacks(context.Background(), model.PackFilter{OEM: "VW"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	values, err = e.store.ListPackValues(context.Background(), page.Items[0].ID)
	require.NoError(t, err)
	for _, v := range values {
		if v.ValueText != nil && *v.ValueText == "~78 est" {
			assert.Nil(t, v.ValueNumeric)
		}
	}
}

func TestRunIsIncremental(t *testing.T) {
	e := newImportEnv(t)
	path := createWorkbook(t, map[string][][]string{
		"Sheet1": {
			{"oem", "model", "year", "chemistry"},
			{"Tesla", "Model 3", "2023", "LFP"},
		},
	})

	_, err := e.im.Run(context.Background(), path, e.user.ID, Options{SourceType: source.OEM})
	require.NoError(t, err)
	report, err := e.im.Run(context.Background(), path, e.user.ID, Options{SourceType: source.OEM})
	require.NoError(t, err)
	assert.Zero(t, report.PacksCreated)
	assert.Equal(t, 1, report.PacksExisting)
	// Values accumulate as new claims rather than overwriting.
	assert.Equal(t, 1, report.ValuesCreated)
}

func TestRunSkipsBadRows(t *testing.T) {
	e := newImportEnv(t)
	path := createWorkbook(t, map[string][][]string{
		"Sheet1": {
			{"oem", "model", "year", "cell_format"},
			{"Tesla", "Model 3", "2023", "Prismatic"},
			{"", "ID.4", "2024", "Pouch"},
			{"BYD", "Seal", "twenty23", "Pouch"},
			{"Kia", "EV6", "2023", "Cylindrical"},
		},
	})

	report, err := e.im.Run(context.Background(), path, e.user.ID, Options{SourceType: source.Press})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 2, report.PacksCreated)
	// The disallowed select option is skipped but its row still imports.
	assert.Equal(t, 1, report.ValuesCreated)
	assert.Len(t, report.Skipped, 3)
}

func TestRunRejectsUnknownColumns(t *testing.T) {
	e := newImportEnv(t)
	path := createWorkbook(t, map[string][][]string{
		"Sheet1": {
			{"oem", "model", "year", "warp_drive"},
			{"Tesla", "Model 3", "2023", "yes"},
		},
	})

	_, err := e.im.Run(context.Background(), path, e.user.ID, Options{SourceType: source.OEM})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warp_drive")
}

func TestRunRejectsMissingIdentityColumns(t *testing.T) {
	e := newImportEnv(t)
	path := createWorkbook(t, map[string][][]string{
		"Sheet1": {
			{"oem", "model", "chemistry"},
			{"Tesla", "Model 3", "LFP"},
		},
	})

	_, err := e.im.Run(context.Background(), path, e.user.ID, Options{SourceType: source.OEM})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year")
}

func TestRunRejectsUnknownSource(t *testing.T) {
	e := newImportEnv(t)
	_, err := e.im.Run(context.Background(), "whatever.xlsx", e.user.ID, Options{SourceType: "rumor"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rumor")
}

func TestNormalizeFoldsCompatibilityForms(t *testing.T) {
	// Full-width digits and letters from vendor exports fold to ASCII.
	assert.Equal(t, "2023", normalize("２０２３"))
	assert.Equal(t, "chemistry", normalizeHeader(" Chemistry "))
	assert.Equal(t, "cell_capacity_ah", normalizeHeader("Cell Capacity AH"))
}
