// Package source enumerates the provenance categories a field value can carry
// and validates user-supplied priority orderings over them.
package source

import (
	"strings"

	"github.com/cellgrid/packdb/internal/apperr"
)

// Kind is the provenance category of a value.
type Kind string

const (
	Teardown   Kind = "teardown"
	A2Mac1     Kind = "a2mac1"
	OEM        Kind = "oem"
	Regulatory Kind = "regulatory"
	CAD        Kind = "cad"
	Calculated Kind = "calculated"
	Press      Kind = "press"
	User       Kind = "user"
)

// kinds holds the full enumeration in declared order. The declared order is
// also the system default priority for users who never customized theirs.
var kinds = []Kind{Teardown, A2Mac1, OEM, Regulatory, CAD, Calculated, Press, User}

var labels = map[Kind]string{
	Teardown:   "Teardown",
	A2Mac1:     "A2Mac1",
	OEM:        "OEM Spec",
	Regulatory: "Regulatory Filing",
	CAD:        "CAD Model",
	Calculated: "Calculated",
	Press:      "Press",
	User:       "User Submission",
}

// Kinds returns the full enumeration in declared order. The returned slice is
// a copy; callers may reorder it freely.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// DefaultOrder returns the system default priority order.
func DefaultOrder() []Kind {
	return Kinds()
}

// Label returns the display label for a kind, or the raw kind string for an
// unknown one.
func Label(k Kind) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Valid reports whether k is a member of the enumeration.
func Valid(k Kind) bool {
	_, ok := labels[k]
	return ok
}

// ValidateOrder checks that order is exactly a permutation of the full kind
// set: same length, every kind present, no duplicates. It returns a
// ValidationError describing the first defect found.
func ValidateOrder(order []Kind) error {
	if len(order) != len(kinds) {
		return apperr.Validationf("priority_order must include every source exactly once (got %d, want %d)", len(order), len(kinds))
	}
	seen := make(map[Kind]bool, len(order))
	for _, k := range order {
		if !Valid(k) {
			return apperr.Validationf("unknown source type %q (valid: %s)", k, strings.Join(kindStrings(), ", "))
		}
		if seen[k] {
			return apperr.Validationf("duplicate source type %q in priority_order", k)
		}
		seen[k] = true
	}
	return nil
}

func kindStrings() []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
