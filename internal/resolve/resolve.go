// Package resolve picks the authoritative value among competing sourced
// assertions for one (pack, field) pair.
//
// Resolution is a pure function of the active values and the requesting
// user's priority order: no I/O, no state, no reliance on input order. It is
// recomputed on every read, so an updated priority order takes effect on the
// next request without any invalidation.
package resolve

import (
	"sort"

	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/source"
)

// ResolvedField is the read-time projection for one field on one pack: the
// value surfaced by default, the number of competing alternatives, and the
// full active set in display order. AllValues[0] equals ResolvedValue
// whenever the set is non-empty.
type ResolvedField struct {
	ResolvedValue    *model.Value  `json:"resolved_value"`
	AlternativeCount int           `json:"alternative_count"`
	AllValues        []model.Value `json:"all_values"`
}

// Resolve ranks the active values for a single field by the composite key
// (priority index of source kind ascending, created_at descending, id
// descending) and returns the projection. The priority index is the kind's
// 0-based position in order; a lower index wins. Within one kind the most
// recent submission wins, value ID breaking exact timestamp ties so repeated
// calls over the same inputs always agree.
//
// Values must already be filtered to the active set; order should be a full
// permutation of the source kinds. A kind missing from order ranks after all
// listed kinds.
func Resolve(values []model.Value, order []source.Kind) ResolvedField {
	if len(values) == 0 {
		return ResolvedField{AllValues: []model.Value{}}
	}

	index := make(map[source.Kind]int, len(order))
	for i, k := range order {
		index[k] = i
	}
	rank := func(k source.Kind) int {
		if i, ok := index[k]; ok {
			return i
		}
		return len(order)
	}

	ranked := make([]model.Value, len(values))
	copy(ranked, values)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]
		if ra, rb := rank(a.SourceType), rank(b.SourceType); ra != rb {
			return ra < rb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return ResolvedField{
		ResolvedValue:    &ranked[0],
		AlternativeCount: len(ranked) - 1,
		AllValues:        ranked,
	}
}
