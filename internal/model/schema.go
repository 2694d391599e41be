package model

import "time"

// Field data types. Number fields additionally carry a parsed numeric
// payload; select fields constrain the text payload to SelectOptions.
const (
	DataTypeText   = "text"
	DataTypeNumber = "number"
	DataTypeSelect = "select"
)

// Domain groups related fields, e.g. "Cell" or "Thermal Management".
type Domain struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	SortOrder   int       `json:"sort_order"`
	IsDefault   bool      `json:"is_default"`
	CreatedBy   *int64    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Field is one measurable attribute within a domain.
type Field struct {
	ID            int64     `json:"id"`
	DomainID      int64     `json:"domain_id"`
	Name          string    `json:"name"`
	DisplayName   string    `json:"display_name"`
	Unit          *string   `json:"unit"`
	DataType      string    `json:"data_type"`
	SelectOptions []string  `json:"select_options,omitempty"`
	SortOrder     int       `json:"sort_order"`
	Description   *string   `json:"description"`
	CreatedBy     *int64    `json:"created_by"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// AllowsOption reports whether text is a permitted payload for a select
// field. Non-select fields allow anything.
func (f *Field) AllowsOption(text string) bool {
	if f.DataType != DataTypeSelect || len(f.SelectOptions) == 0 {
		return true
	}
	for _, opt := range f.SelectOptions {
		if opt == text {
			return true
		}
	}
	return false
}
