package listing

import (
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-listing/internal/records"
)

// ElementType is the block type label shown in the page editor.
const ElementType = "Listing"

// SortDir values.
const (
	SortAscending  = "Ascending"
	SortDescending = "Descending"
)

// Element is a configured content listing block.
type Element struct {
	bun.BaseModel `bun:"table:listing_elements,alias:le"`

	ID                           uuid.UUID         `bun:",pk,type:uuid" json:"id"`
	Key                          string            `bun:"key,notnull" json:"key"`
	Title                        string            `bun:"title" json:"title"`
	PerPage                      int               `bun:"per_page,notnull,default:10" json:"per_page"`
	SortBy                       string            `bun:"sort_by" json:"sort_by"`
	CustomSort                   string            `bun:"custom_sort" json:"custom_sort"`
	SortDir                      string            `bun:"sort_dir,notnull,default:'Ascending'" json:"sort_dir"`
	ListType                     string            `bun:"list_type,notnull" json:"list_type"`
	ListingSourceID              *uuid.UUID        `bun:"listing_source_id,type:uuid" json:"listing_source_id,omitempty"`
	Depth                        int               `bun:"depth,notnull,default:0" json:"depth"`
	StrictType                   bool              `bun:"strict_type,notnull,default:false" json:"strict_type"`
	AllowDrilldown               bool              `bun:"allow_drilldown,notnull,default:false" json:"allow_drilldown"`
	ComponentFilterName          string            `bun:"component_filter_name" json:"component_filter_name"`
	ComponentFilterColumn        string            `bun:"component_filter_column" json:"component_filter_column"`
	ComponentFilterWhere         map[string]string `bun:"component_filter_where,type:jsonb" json:"component_filter_where,omitempty"`
	ListingTemplate              string            `bun:"listing_template" json:"listing_template"`
	ComponentListingTemplate     string            `bun:"component_listing_template" json:"component_listing_template"`
	ListingTemplateFile          string            `bun:"listing_template_file" json:"listing_template_file"`
	ComponentListingTemplateFile string            `bun:"component_listing_template_file" json:"component_listing_template_file"`
	CreatedBy                    uuid.UUID         `bun:"created_by,type:uuid" json:"created_by"`
	UpdatedBy                    uuid.UUID         `bun:"updated_by,type:uuid" json:"updated_by"`
	CreatedAt                    time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt                    time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Ascending reports whether the configured direction is ascending.
func (e *Element) Ascending() bool {
	return e.SortDir == SortAscending
}

// PageVar returns the GET variable carrying this element's page offset.
func (e *Element) PageVar(prefix string) string {
	return prefix + e.Key
}

// Models returns the bun models owned by this package.
func Models() []any {
	return []any{(*Element)(nil)}
}

// Request is the slice of the HTTP request a listing reads.
type Request struct {
	// Action is the URL segment after the element route, used for drilldown
	// and component filtering.
	Action string
	Query  url.Values
	// URL is the current request URL, the base for pagination links.
	URL string
	// Preview includes draft records and sources.
	Preview bool
}

// GetVar returns a single query value.
func (r Request) GetVar(name string) string {
	if r.Query == nil {
		return ""
	}
	return r.Query.Get(name)
}

// ItemView is a record flattened for templates.
type ItemView struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	ParentID  string         `json:"parent_id,omitempty"`
	Title     string         `json:"title"`
	Slug      string         `json:"slug"`
	Sort      int            `json:"sort"`
	Status    string         `json:"status"`
	Fields    map[string]any `json:"fields,omitempty"`
	Link      string         `json:"link,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newItemView(record *records.Record, link string) ItemView {
	view := ItemView{
		ID:        record.ID.String(),
		Type:      record.Type,
		Title:     record.Title,
		Slug:      record.Slug,
		Sort:      record.Sort,
		Status:    record.Status,
		Fields:    record.Fields,
		Link:      link,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.ParentID != nil {
		view.ParentID = record.ParentID.String()
	}
	if view.Fields == nil {
		view.Fields = map[string]any{}
	}
	return view
}

// Listing is the outcome of ListingItems.
type Listing struct {
	Items      []ItemView     `json:"items"`
	Pagination *PaginatedList `json:"pagination"`
	// Sort and Dir are the column and SQL direction actually applied.
	Sort   string    `json:"sort"`
	Dir    string    `json:"dir"`
	Source *ItemView `json:"source,omitempty"`
	Link   string    `json:"link"`
	// Components holds the relation targets the list was filtered by.
	Components []ItemView `json:"components,omitempty"`
}
