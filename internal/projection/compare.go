package projection

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/resolve"
	"github.com/cellgrid/packdb/internal/source"
)

// CompareField carries one field's resolved value for every compared pack,
// keyed by pack id. A pack with no values for the field maps to null.
type CompareField struct {
	FieldID      int64                   `json:"field_id"`
	FieldName    string                  `json:"field_name"`
	DisplayName  string                  `json:"display_name"`
	Unit         *string                 `json:"unit"`
	DataType     string                  `json:"data_type"`
	SortOrder    int                     `json:"sort_order"`
	ValuesByPack map[string]*model.Value `json:"values_by_pack"`
}

type CompareDomain struct {
	DomainID   int64          `json:"domain_id"`
	DomainName string         `json:"domain_name"`
	SortOrder  int            `json:"sort_order"`
	Fields     []CompareField `json:"fields"`
}

// CompareResult lists the compared packs in request order, then the union of
// their populated fields. Fields with no value in any pack are dropped, and
// domains emptied by that are dropped too.
type CompareResult struct {
	Packs   []model.Pack    `json:"packs"`
	Domains []CompareDomain `json:"domains"`
}

// Compare resolves packIDs side by side under one priority order. Pack loads
// and value loads fan out concurrently; any missing pack fails the whole
// comparison.
func (s *Service) Compare(ctx context.Context, packIDs []int64, order []source.Kind) (*CompareResult, error) {
	packs := make([]model.Pack, len(packIDs))
	valuesByPack := make([]map[int64][]model.Value, len(packIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range packIDs {
		g.Go(func() error {
			p, err := s.store.GetPack(gctx, id)
			if err != nil {
				return err
			}
			packs[i] = *p
			values, err := s.store.ListPackValues(gctx, id)
			if err != nil {
				return err
			}
			valuesByPack[i] = groupByField(values)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	domains, fieldsByDomain, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	result := &CompareResult{Packs: packs, Domains: []CompareDomain{}}
	for _, d := range domains {
		cd := CompareDomain{DomainID: d.ID, DomainName: d.Name, SortOrder: d.SortOrder, Fields: []CompareField{}}
		for _, f := range fieldsByDomain[d.ID] {
			cf := CompareField{
				FieldID:      f.ID,
				FieldName:    f.Name,
				DisplayName:  f.DisplayName,
				Unit:         f.Unit,
				DataType:     f.DataType,
				SortOrder:    f.SortOrder,
				ValuesByPack: make(map[string]*model.Value, len(packIDs)),
			}
			populated := false
			for i, id := range packIDs {
				key := strconv.FormatInt(id, 10)
				vals := valuesByPack[i][f.ID]
				if len(vals) == 0 {
					cf.ValuesByPack[key] = nil
					continue
				}
				cf.ValuesByPack[key] = resolve.Resolve(vals, order).ResolvedValue
				populated = true
			}
			if populated {
				cd.Fields = append(cd.Fields, cf)
			}
		}
		if len(cd.Fields) > 0 {
			result.Domains = append(result.Domains, cd)
		}
	}
	return result, nil
}
