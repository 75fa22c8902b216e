package listingcmd

import (
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/listing"
)

const (
	upsertElementMessageType = "listing.elements.upsert"
	deleteElementMessageType = "listing.elements.delete"
	renderElementMessageType = "listing.elements.render"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _-]*$`)

// UpsertResult receives the outcome of an upsert.
type UpsertResult struct {
	Element *listing.Element
	Created bool
}

// UpsertElementCommand creates an element, or replaces the configuration of
// the element matching ID or Key.
type UpsertElementCommand struct {
	ID                           uuid.UUID         `json:"id,omitempty"`
	Key                          string            `json:"key"`
	Title                        string            `json:"title,omitempty"`
	PerPage                      *int              `json:"per_page,omitempty"`
	SortBy                       string            `json:"sort_by,omitempty"`
	CustomSort                   string            `json:"custom_sort,omitempty"`
	SortDir                      string            `json:"sort_dir,omitempty"`
	ListType                     string            `json:"list_type,omitempty"`
	ListingSourceID              *uuid.UUID        `json:"listing_source_id,omitempty"`
	Depth                        int               `json:"depth,omitempty"`
	StrictType                   bool              `json:"strict_type,omitempty"`
	AllowDrilldown               bool              `json:"allow_drilldown,omitempty"`
	ComponentFilterName          string            `json:"component_filter_name,omitempty"`
	ComponentFilterColumn        string            `json:"component_filter_column,omitempty"`
	ComponentFilterWhere         map[string]string `json:"component_filter_where,omitempty"`
	ListingTemplate              *string           `json:"listing_template,omitempty"`
	ComponentListingTemplate     string            `json:"component_listing_template,omitempty"`
	ListingTemplateFile          string            `json:"listing_template_file,omitempty"`
	ComponentListingTemplateFile string            `json:"component_listing_template_file,omitempty"`
	Actor                        uuid.UUID         `json:"actor,omitempty"`

	Output *UpsertResult `json:"-"`
}

// Type implements command.Message.
func (UpsertElementCommand) Type() string { return upsertElementMessageType }

// Validate checks the fields that can be judged without the catalog.
func (m UpsertElementCommand) Validate() error {
	errs := validation.Errors{}
	key := strings.TrimSpace(m.Key)
	if key == "" && strings.TrimSpace(m.Title) == "" && m.ID == uuid.Nil {
		errs["key"] = validation.NewError("listing.elements.upsert.key_required", "key or title is required")
	} else if key != "" && !keyPattern.MatchString(key) {
		errs["key"] = validation.NewError("listing.elements.upsert.key_invalid", "key may only contain letters, digits, spaces, dashes and underscores")
	}
	if err := validation.Validate(m.SortDir, validation.In(listing.SortAscending, listing.SortDescending)); err != nil {
		errs["sort_dir"] = err
	}
	if m.PerPage != nil {
		if err := validation.Validate(*m.PerPage, validation.Min(0)); err != nil {
			errs["per_page"] = err
		}
	}
	if err := validation.Validate(m.Depth, validation.Min(0)); err != nil {
		errs["depth"] = err
	}
	if m.ListingSourceID != nil && *m.ListingSourceID == uuid.Nil {
		errs["listing_source_id"] = validation.NewError("listing.elements.upsert.source_invalid", "listing_source_id must be a valid identifier when provided")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DeleteElementCommand removes an element by ID or key.
type DeleteElementCommand struct {
	ID  uuid.UUID `json:"id,omitempty"`
	Key string    `json:"key,omitempty"`
}

// Type implements command.Message.
func (DeleteElementCommand) Type() string { return deleteElementMessageType }

// Validate ensures the element is identified.
func (m DeleteElementCommand) Validate() error {
	if m.ID == uuid.Nil && strings.TrimSpace(m.Key) == "" {
		return validation.Errors{
			"id": validation.NewError("listing.elements.delete.id_required", "id or key is required"),
		}
	}
	return nil
}

// RenderResult receives the rendered markup.
type RenderResult struct {
	ElementID uuid.UUID
	HTML      string
}

// RenderElementCommand renders the element stored under Key for a request.
type RenderElementCommand struct {
	Key     string     `json:"key"`
	Action  string     `json:"action,omitempty"`
	Query   url.Values `json:"query,omitempty"`
	URL     string     `json:"url,omitempty"`
	Preview bool       `json:"preview,omitempty"`

	Output *RenderResult `json:"-"`
}

// Type implements command.Message.
func (RenderElementCommand) Type() string { return renderElementMessageType }

// Validate ensures the key is present.
func (m RenderElementCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Key, validation.Required.Error("key is required")),
	)
}

func (m RenderElementCommand) request() listing.Request {
	return listing.Request{Action: m.Action, Query: m.Query, URL: m.URL, Preview: m.Preview}
}
