// Package projection assembles read views over the store: the full pack
// detail sheet and the side-by-side comparison. Both run every field through
// the resolver with the caller's source priority order.
package projection

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/resolve"
	"github.com/cellgrid/packdb/internal/source"
	"github.com/cellgrid/packdb/internal/store"
)

// FieldView is one field in a detail sheet, metadata plus the resolution
// outcome for one pack.
type FieldView struct {
	FieldID     int64   `json:"field_id"`
	FieldName   string  `json:"field_name"`
	DisplayName string  `json:"display_name"`
	Unit        *string `json:"unit"`
	DataType    string  `json:"data_type"`
	SortOrder   int     `json:"sort_order"`
	resolve.ResolvedField
}

// DomainView groups a detail sheet's fields. Domains with no fields still
// appear so clients render a stable catalog.
type DomainView struct {
	DomainID   int64       `json:"domain_id"`
	DomainName string      `json:"domain_name"`
	SortOrder  int         `json:"sort_order"`
	Fields     []FieldView `json:"fields"`
}

// PackDetail is the full resolved sheet for one pack.
type PackDetail struct {
	model.Pack
	Domains []DomainView `json:"domains"`
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// catalog loads the active domain/field catalog once per request.
func (s *Service) catalog(ctx context.Context) ([]model.Domain, map[int64][]model.Field, error) {
	domains, err := s.store.ListDomains(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "projection: load domains")
	}
	fields, err := s.store.ListAllFields(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "projection: load fields")
	}
	byDomain := make(map[int64][]model.Field, len(domains))
	for _, f := range fields {
		byDomain[f.DomainID] = append(byDomain[f.DomainID], f)
	}
	return domains, byDomain, nil
}

// Detail resolves every field of one pack under the given priority order.
func (s *Service) Detail(ctx context.Context, packID int64, order []source.Kind) (*PackDetail, error) {
	pack, err := s.store.GetPack(ctx, packID)
	if err != nil {
		return nil, err
	}
	domains, fieldsByDomain, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	values, err := s.store.ListPackValues(ctx, packID)
	if err != nil {
		return nil, err
	}
	byField := groupByField(values)

	detail := &PackDetail{Pack: *pack, Domains: []DomainView{}}
	for _, d := range domains {
		dv := DomainView{DomainID: d.ID, DomainName: d.Name, SortOrder: d.SortOrder, Fields: []FieldView{}}
		for _, f := range fieldsByDomain[d.ID] {
			dv.Fields = append(dv.Fields, FieldView{
				FieldID:       f.ID,
				FieldName:     f.Name,
				DisplayName:   f.DisplayName,
				Unit:          f.Unit,
				DataType:      f.DataType,
				SortOrder:     f.SortOrder,
				ResolvedField: resolve.Resolve(byField[f.ID], order),
			})
		}
		detail.Domains = append(detail.Domains, dv)
	}
	return detail, nil
}

func groupByField(values []model.Value) map[int64][]model.Value {
	byField := make(map[int64][]model.Value)
	for _, v := range values {
		byField[v.FieldID] = append(byField[v.FieldID], v)
	}
	return byField
}
