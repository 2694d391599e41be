package model

import (
	"time"

	"github.com/cellgrid/packdb/internal/source"
)

// Value is one sourced claim about a (pack, field) pair. Many values may
// coexist for the same pair; resolution picks the winner per reader.
type Value struct {
	ID              int64       `json:"id"`
	PackID          int64       `json:"pack_id"`
	FieldID         int64       `json:"field_id"`
	ValueText       *string     `json:"value_text"`
	ValueNumeric    *float64    `json:"value_numeric"`
	SourceType      source.Kind `json:"source_type"`
	SourceDetail    string      `json:"source_detail"`
	ContributedBy   int64       `json:"contributed_by"`
	ContributorName *string     `json:"contributor_name"`
	IsActive        bool        `json:"is_active"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	CommentCount    int         `json:"comment_count"`
}

// Comment is a discussion entry attached to a value.
type Comment struct {
	ID         int64     `json:"id"`
	ValueID    int64     `json:"value_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName *string   `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
