package records

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Record is a node in the content graph.
type Record struct {
	bun.BaseModel `bun:"table:listing_records,alias:lr"`

	ID        uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Type      string         `bun:"type,notnull" json:"type"`
	ParentID  *uuid.UUID     `bun:"parent_id,type:uuid" json:"parent_id,omitempty"`
	Title     string         `bun:"title,notnull" json:"title"`
	Slug      string         `bun:"slug,notnull" json:"slug"`
	Sort      int            `bun:"sort,notnull,default:0" json:"sort"`
	Status    string         `bun:"status,notnull,default:'published'" json:"status"`
	Fields    map[string]any `bun:"fields,type:jsonb" json:"fields,omitempty"`
	CreatedAt time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Published reports whether the record is visible on the live site.
func (r *Record) Published() bool {
	return r != nil && r.Status == StatusPublished
}

// Value returns a core column or declared field by its selectable name.
func (r *Record) Value(field string) (any, bool) {
	if r == nil {
		return nil, false
	}
	switch canonicalField(field) {
	case "ID":
		return r.ID.String(), true
	case "ParentID":
		if r.ParentID == nil {
			return "", true
		}
		return r.ParentID.String(), true
	case "Title":
		return r.Title, true
	case "Slug":
		return r.Slug, true
	case "Type":
		return r.Type, true
	case "Sort":
		return r.Sort, true
	case "Status":
		return r.Status, true
	case "CreatedAt":
		return r.CreatedAt, true
	case "UpdatedAt":
		return r.UpdatedAt, true
	}
	value, ok := r.Fields[field]
	return value, ok
}

// Relation is a many-to-many join row: RecordID --Name--> TargetID.
type Relation struct {
	bun.BaseModel `bun:"table:listing_record_relations,alias:lrr"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	RecordID  uuid.UUID `bun:"record_id,notnull,type:uuid" json:"record_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	TargetID  uuid.UUID `bun:"target_id,notnull,type:uuid" json:"target_id"`
	Position  int       `bun:"position,notnull,default:0" json:"position"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Query filters, sorts and paginates records.
type Query struct {
	Types     []string
	ParentIDs []uuid.UUID
	IDs       []uuid.UUID
	// Where holds equality constraints keyed by selectable field name.
	Where         map[string]any
	Relation      *RelationFilter
	SortField     string
	SortDesc      bool
	Limit         int
	Offset        int
	IncludeDrafts bool
}

// RelationFilter keeps records related through Name to any of TargetIDs.
type RelationFilter struct {
	Name      string
	TargetIDs []uuid.UUID
}

// Result is a page of records plus the unpaginated total.
type Result struct {
	Items []*Record `json:"items"`
	Total int       `json:"total"`
}

// Models returns the bun models owned by this package.
func Models() []any {
	return []any{
		(*Record)(nil),
		(*Relation)(nil),
	}
}

var fieldColumns = map[string]string{
	"ID":        "id",
	"ParentID":  "parent_id",
	"Title":     "title",
	"Slug":      "slug",
	"Type":      "type",
	"Sort":      "sort",
	"Status":    "status",
	"CreatedAt": "created_at",
	"UpdatedAt": "updated_at",
}

// canonicalField maps snake_case column names onto their selectable name.
func canonicalField(field string) string {
	if _, ok := fieldColumns[field]; ok {
		return field
	}
	for name, column := range fieldColumns {
		if column == field {
			return name
		}
	}
	return field
}

// columnFor returns the table column for a core field, or false for
// declared fields stored in the JSON payload.
func columnFor(field string) (string, bool) {
	column, ok := fieldColumns[canonicalField(field)]
	return column, ok
}
