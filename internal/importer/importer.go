// Package importer loads packs and field values from spreadsheet exports.
// A workbook carries one pack per row: identity columns first, then one
// column per catalog field, matched by normalized field name.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/cellgrid/packdb/internal/apperr"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
	"github.com/cellgrid/packdb/internal/store"
)

// identity columns recognized in the header row.
const (
	colOEM          = "oem"
	colModel        = "model"
	colYear         = "year"
	colVariant      = "variant"
	colMarket       = "market"
	colFuelType     = "fuel_type"
	colVehicleClass = "vehicle_class"
	colDrivetrain   = "drivetrain"
	colPlatform     = "platform"
)

var identityColumns = map[string]bool{
	colOEM: true, colModel: true, colYear: true, colVariant: true,
	colMarket: true, colFuelType: true, colVehicleClass: true,
	colDrivetrain: true, colPlatform: true,
}

// Options configures one import run.
type Options struct {
	Sheet        string
	SourceType   source.Kind
	SourceDetail string
	Timeout      time.Duration
}

// Report summarizes one import run.
type Report struct {
	RunID         string   `json:"run_id"`
	Rows          int      `json:"rows"`
	PacksCreated  int      `json:"packs_created"`
	PacksExisting int      `json:"packs_existing"`
	ValuesCreated int      `json:"values_created"`
	Skipped       []string `json:"skipped"`
}

type Importer struct {
	store store.Store
}

func NewImporter(st store.Store) *Importer {
	return &Importer{store: st}
}

// normalize canonicalizes spreadsheet text. NFKC folds the full-width and
// compatibility forms that vendor exports are full of.
func normalize(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

func normalizeHeader(s string) string {
	h := strings.ToLower(normalize(s))
	return strings.ReplaceAll(h, " ", "_")
}

// Run imports the workbook at location on behalf of userID. Rows that cannot
// be imported are skipped and reported, not fatal.
func (im *Importer) Run(ctx context.Context, location string, userID int64, opts Options) (*Report, error) {
	if !source.Valid(opts.SourceType) {
		return nil, apperr.Validationf("unknown source_type %q", opts.SourceType)
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Minute
	}

	path, cleanup, err := Fetch(ctx, location, opts.Timeout)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}
	sheet, err := pickSheet(file, opts.Sheet)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) < 2 {
		return nil, apperr.Validationf("workbook has no data rows")
	}

	fields, err := im.store.ListAllFields(ctx)
	if err != nil {
		return nil, err
	}
	fieldsByName := make(map[string]model.Field, len(fields))
	for _, f := range fields {
		fieldsByName[normalizeHeader(f.Name)] = f
	}

	header := make([]string, len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		header[i] = normalizeHeader(cell.String())
	}
	if err := checkHeader(header, fieldsByName); err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString(), Skipped: []string{}}
	detail := opts.SourceDetail
	if detail == "" {
		detail = fmt.Sprintf("import %s", report.RunID)
	}

	zap.L().Info("import started",
		zap.String("run_id", report.RunID),
		zap.String("location", location),
		zap.String("source_type", string(opts.SourceType)),
	)

	for i, row := range sheet.Rows[1:] {
		rowNum := i + 2
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "importer: cancelled")
		}
		if err := im.importRow(ctx, header, row, fieldsByName, userID, opts.SourceType, detail, report); err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		report.Rows++
	}

	zap.L().Info("import finished",
		zap.String("run_id", report.RunID),
		zap.Int("rows", report.Rows),
		zap.Int("packs_created", report.PacksCreated),
		zap.Int("values_created", report.ValuesCreated),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

func pickSheet(file *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name == "" {
		if len(file.Sheets) == 0 {
			return nil, apperr.Validationf("workbook has no sheets")
		}
		return file.Sheets[0], nil
	}
	sheet, ok := file.Sheet[name]
	if !ok {
		return nil, apperr.Validationf("sheet %q not found", name)
	}
	return sheet, nil
}

func checkHeader(header []string, fieldsByName map[string]model.Field) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	for _, col := range []string{colOEM, colModel, colYear} {
		if !have[col] {
			return apperr.Validationf("missing required column %q", col)
		}
	}
	for _, h := range header {
		if h == "" || identityColumns[h] {
			continue
		}
		if _, ok := fieldsByName[h]; !ok {
			return apperr.Validationf("column %q matches no catalog field", h)
		}
	}
	return nil
}

func (im *Importer) importRow(ctx context.Context, header []string, row *xlsx.Row,
	fieldsByName map[string]model.Field, userID int64, kind source.Kind, detail string,
	report *Report) error {

	cells := make(map[string]string, len(header))
	for i, col := range header {
		if col == "" || i >= len(row.Cells) {
			continue
		}
		cells[col] = normalize(row.Cells[i].String())
	}

	pack, err := im.ensurePack(ctx, cells, userID, report)
	if err != nil {
		return err
	}

	for col, text := range cells {
		if identityColumns[col] || text == "" {
			continue
		}
		field, ok := fieldsByName[col]
		if !ok {
			continue
		}
		if !field.AllowsOption(text) {
			report.Skipped = append(report.Skipped,
				fmt.Sprintf("pack %d field %s: %q is not an option", pack.ID, field.Name, text))
			continue
		}
		value := model.Value{
			PackID:        pack.ID,
			FieldID:       field.ID,
			ValueText:     &text,
			SourceType:    kind,
			SourceDetail:  detail,
			ContributedBy: userID,
		}
		if field.DataType == model.DataTypeNumber {
			if n, err := strconv.ParseFloat(text, 64); err == nil {
				value.ValueNumeric = &n
			}
		}
		if err := im.store.CreateValue(ctx, &value); err != nil {
			return err
		}
		report.ValuesCreated++
	}
	return nil
}

// ensurePack finds or creates the pack a row describes. A conflict on create
// means another row or a previous run already made it; re-read and reuse.
func (im *Importer) ensurePack(ctx context.Context, cells map[string]string, userID int64, report *Report) (*model.Pack, error) {
	oem, mdl := cells[colOEM], cells[colModel]
	if oem == "" || mdl == "" {
		return nil, apperr.Validationf("oem and model are required")
	}
	year, err := strconv.Atoi(cells[colYear])
	if err != nil {
		return nil, apperr.Validationf("invalid year %q", cells[colYear])
	}

	pack := &model.Pack{
		OEM:       oem,
		Model:     mdl,
		Year:      year,
		CreatedBy: &userID,
	}
	optional := func(col string) *string {
		if v := cells[col]; v != "" {
			return &v
		}
		return nil
	}
	pack.Variant = optional(colVariant)
	pack.Market = optional(colMarket)
	pack.FuelType = optional(colFuelType)
	pack.VehicleClass = optional(colVehicleClass)
	pack.Drivetrain = optional(colDrivetrain)
	pack.Platform = optional(colPlatform)

	err = im.store.CreatePack(ctx, pack)
	if err == nil {
		report.PacksCreated++
		return pack, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return nil, err
	}
	existing, err := im.findPack(ctx, pack)
	if err != nil {
		return nil, err
	}
	report.PacksExisting++
	return existing, nil
}

func (im *Importer) findPack(ctx context.Context, want *model.Pack) (*model.Pack, error) {
	page, err := im.store.ListPacks(ctx, model.PackFilter{
		OEM:      want.OEM,
		Model:    want.Model,
		PageSize: 100,
	})
	if err != nil {
		return nil, err
	}
	strOrEmpty := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	for i := range page.Items {
		p := &page.Items[i]
		if p.Year == want.Year &&
			strOrEmpty(p.Variant) == strOrEmpty(want.Variant) &&
			strOrEmpty(p.Market) == strOrEmpty(want.Market) {
			return p, nil
		}
	}
	return nil, eris.Wrapf(apperr.ErrNotFound, "importer: pack %s %s %d", want.OEM, want.Model, want.Year)
}
