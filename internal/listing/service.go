package listing

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	goslug "github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/identity"
	"github.com/goliatone/go-cms-listing/internal/links"
	"github.com/goliatone/go-cms-listing/internal/logging"
	"github.com/goliatone/go-cms-listing/internal/records"
	"github.com/goliatone/go-cms-listing/internal/runtimeconfig"
	"github.com/goliatone/go-cms-listing/internal/templates"
	"github.com/goliatone/go-cms-listing/internal/validation"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

// Service manages listing elements and builds their output.
type Service interface {
	Create(ctx context.Context, input CreateElementInput) (*Element, error)
	Update(ctx context.Context, input UpdateElementInput) (*Element, error)
	Get(ctx context.Context, id uuid.UUID) (*Element, error)
	GetByKey(ctx context.Context, key string) (*Element, error)
	List(ctx context.Context) ([]*Element, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Type() string
	BlockSchema(ctx context.Context, element *Element) BlockSchema
	Fields(ctx context.Context, element *Element) (*Form, error)
	ConfigurationSchema() map[string]any
	TemplateFiles() (map[string]string, error)

	EffectiveSourceType(element *Element) string
	ListingSource(ctx context.Context, element *Element, req Request) (*records.Record, error)
	ListingItems(ctx context.Context, element *Element, req Request) (*Listing, error)
	ComponentListingItems(ctx context.Context, element *Element) ([]ItemView, error)
	IsComponentListing(element *Element, req Request) bool
	Render(ctx context.Context, element *Element, req Request) (string, error)
}

// CreateElementInput captures the configuration of a new element. Nil
// pointers take the configured defaults.
type CreateElementInput struct {
	ID                           uuid.UUID
	Key                          string
	Title                        string
	PerPage                      *int
	SortBy                       string
	CustomSort                   string
	SortDir                      string
	ListType                     string
	ListingSourceID              *uuid.UUID
	Depth                        int
	StrictType                   bool
	AllowDrilldown               bool
	ComponentFilterName          string
	ComponentFilterColumn        string
	ComponentFilterWhere         map[string]string
	ListingTemplate              *string
	ComponentListingTemplate     string
	ListingTemplateFile          string
	ComponentListingTemplateFile string
	CreatedBy                    uuid.UUID
}

// UpdateElementInput carries mutable element fields. Nil pointers and a nil
// ComponentFilterWhere are left untouched.
type UpdateElementInput struct {
	ID                           uuid.UUID
	Key                          *string
	Title                        *string
	PerPage                      *int
	SortBy                       *string
	CustomSort                   *string
	SortDir                      *string
	ListType                     *string
	ListingSourceID              *uuid.UUID
	ClearListingSource           bool
	Depth                        *int
	StrictType                   *bool
	AllowDrilldown               *bool
	ComponentFilterName          *string
	ComponentFilterColumn        *string
	ComponentFilterWhere         map[string]string
	ListingTemplate              *string
	ComponentListingTemplate     *string
	ListingTemplateFile          *string
	ComponentListingTemplateFile *string
	UpdatedBy                    uuid.UUID
}

var (
	ErrElementIDRequired        = errors.New("listing: element id required")
	ErrElementKeyRequired       = errors.New("listing: element key or title required")
	ErrElementKeyExists         = errors.New("listing: element key already exists")
	ErrListTypeUnknown          = errors.New("listing: list type not registered")
	ErrSortFieldUnknown         = errors.New("listing: sort field not selectable on list type")
	ErrListingSourceInvalid     = errors.New("listing: listing source does not exist or has the wrong type")
	ErrComponentRelationUnknown = errors.New("listing: relation not declared on list type")
	ErrComponentRelationMissing = errors.New("listing: relation column and constraints require a relation")
	ErrComponentColumnUnknown   = errors.New("listing: relation column not selectable on relation target")
	ErrTemplateFileUnknown      = errors.New("listing: template file not available")
	ErrTemplatesDisabled        = errors.New("listing: editable templates are disabled")
	ErrComponentNotFound        = errors.New("listing: no relation target matches the request action")
	ErrRendererRequired         = errors.New("listing: template renderer not configured")
)

// IDGenerator produces unique identifiers.
type IDGenerator func() uuid.UUID

// ItemsModifier adjusts the record query of a listing before it runs.
type ItemsModifier func(ctx context.Context, element *Element, query *records.Query) error

// Visibility decides whether a listing source may be shown for req.
type Visibility func(ctx context.Context, record *records.Record, req Request) bool

// ElementLinker returns the public URL of an element, used in admin hints.
type ElementLinker func(element *Element) string

// BlockSchema is the summary a page editor shows for the element.
type BlockSchema struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ServiceOption configures listing service behaviour.
type ServiceOption func(*service)

// WithClock overrides the time source used by the service.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator replaces the key derived element IDs.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger wires a logger for element operations.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderer sets the template renderer used by Render.
func WithRenderer(renderer interfaces.TemplateRenderer) ServiceOption {
	return func(s *service) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithLinkResolver sets the resolver filling ItemView.Link.
func WithLinkResolver(resolver links.Resolver) ServiceOption {
	return func(s *service) {
		if resolver != nil {
			s.links = resolver
		}
	}
}

// WithVisibility replaces the published-or-preview source check.
func WithVisibility(fn Visibility) ServiceOption {
	return func(s *service) {
		if fn != nil {
			s.canView = fn
		}
	}
}

// WithItemsModifier appends a hook run on every listing query.
func WithItemsModifier(fn ItemsModifier) ServiceOption {
	return func(s *service) {
		if fn != nil {
			s.modifiers = append(s.modifiers, fn)
		}
	}
}

// WithElementLinker sets how admin hints print the element URL.
func WithElementLinker(fn ElementLinker) ServiceOption {
	return func(s *service) {
		if fn != nil {
			s.elementLink = fn
		}
	}
}

// WithListingConfig overrides element defaults.
func WithListingConfig(cfg runtimeconfig.ListingConfig) ServiceOption {
	return func(s *service) {
		s.listing = cfg
	}
}

// WithTemplatesConfig overrides template sources and switches.
func WithTemplatesConfig(cfg runtimeconfig.TemplatesConfig) ServiceOption {
	return func(s *service) {
		s.templates = cfg
	}
}

// WithFeatures toggles drilldown and component filtering.
func WithFeatures(features runtimeconfig.Features) ServiceOption {
	return func(s *service) {
		s.features = features
	}
}

type service struct {
	repo        ElementRepository
	graph       records.Service
	renderer    interfaces.TemplateRenderer
	links       links.Resolver
	validator   *validation.Validator
	canView     Visibility
	modifiers   []ItemsModifier
	elementLink ElementLinker
	listing     runtimeconfig.ListingConfig
	templates   runtimeconfig.TemplatesConfig
	features    runtimeconfig.Features
	now         func() time.Time
	id          IDGenerator
	logger      interfaces.Logger
}

// NewService constructs the listing element service.
func NewService(repo ElementRepository, graph records.Service, opts ...ServiceOption) (Service, error) {
	defaults := runtimeconfig.DefaultConfig()
	s := &service{
		repo:        repo,
		graph:       graph,
		links:       links.Nop(),
		canView:     defaultVisibility,
		elementLink: defaultElementLink,
		listing:     defaults.Listing,
		templates:   defaults.Templates,
		features:    defaults.Features,
		now:         time.Now,
		logger:      logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.listing.MaxDepth < 1 {
		s.listing.MaxDepth = defaults.Listing.MaxDepth
	}
	if strings.TrimSpace(s.listing.PageVarPrefix) == "" {
		s.listing.PageVarPrefix = defaults.Listing.PageVarPrefix
	}

	validator, err := NewConfigurationValidator(s.listing.MaxDepth)
	if err != nil {
		return nil, err
	}
	s.validator = validator
	return s, nil
}

func defaultVisibility(_ context.Context, record *records.Record, req Request) bool {
	return record != nil && (record.Published() || req.Preview)
}

func defaultElementLink(element *Element) string {
	if element == nil || element.Key == "" {
		return "/elements/"
	}
	return "/elements/" + element.Key + "/"
}

func (s *service) Type() string {
	return ElementType
}

func (s *service) ConfigurationSchema() map[string]any {
	return s.validator.Schema()
}

func (s *service) TemplateFiles() (map[string]string, error) {
	return templates.ListTemplateFiles(s.templates.FileSources, s.templates.Directory, s.templates.Extension)
}

// BlockSchema describes the element as "Listing of <plural>".
func (s *service) BlockSchema(_ context.Context, element *Element) BlockSchema {
	schema := BlockSchema{Type: ElementType}
	if element == nil {
		return schema
	}
	if element.ID != uuid.Nil {
		schema.ID = element.ID.String()
	}
	schema.Title = element.Title
	if element.ListType != "" {
		if plural := s.graph.Catalog().PluralName(element.ListType); plural != "" {
			schema.Content = "Listing of " + plural
		}
	}
	return schema
}

func (s *service) Create(ctx context.Context, input CreateElementInput) (*Element, error) {
	perPage := s.listing.DefaultPerPage
	if input.PerPage != nil {
		perPage = *input.PerPage
	}
	listType := strings.TrimSpace(input.ListType)
	if listType == "" {
		listType = s.listing.DefaultListType
	}
	sortDir := strings.TrimSpace(input.SortDir)
	if sortDir == "" {
		sortDir = SortAscending
	}
	listingTemplate := ""
	switch {
	case input.ListingTemplate != nil:
		listingTemplate = *input.ListingTemplate
	case !s.templates.CMSTemplatesDisabled:
		listingTemplate = s.listing.DefaultTemplate
	}

	now := s.now()
	element := &Element{
		ID:                           input.ID,
		Key:                          input.Key,
		Title:                        strings.TrimSpace(input.Title),
		PerPage:                      perPage,
		SortBy:                       strings.TrimSpace(input.SortBy),
		CustomSort:                   strings.TrimSpace(input.CustomSort),
		SortDir:                      sortDir,
		ListType:                     listType,
		ListingSourceID:              cloneUUIDPtr(input.ListingSourceID),
		Depth:                        input.Depth,
		StrictType:                   input.StrictType,
		AllowDrilldown:               input.AllowDrilldown,
		ComponentFilterName:          strings.TrimSpace(input.ComponentFilterName),
		ComponentFilterColumn:        strings.TrimSpace(input.ComponentFilterColumn),
		ComponentFilterWhere:         maps.Clone(input.ComponentFilterWhere),
		ListingTemplate:              listingTemplate,
		ComponentListingTemplate:     input.ComponentListingTemplate,
		ListingTemplateFile:          strings.TrimSpace(input.ListingTemplateFile),
		ComponentListingTemplateFile: strings.TrimSpace(input.ComponentListingTemplateFile),
		CreatedBy:                    input.CreatedBy,
		UpdatedBy:                    input.CreatedBy,
		CreatedAt:                    now,
		UpdatedAt:                    now,
	}

	key, err := elementKey(element.Key, element.Title)
	if err != nil {
		return nil, err
	}
	element.Key = key
	if element.ID == uuid.Nil {
		element.ID = s.newID(key)
	}
	if err := s.ensureKeyAvailable(ctx, key, element.ID); err != nil {
		return nil, err
	}
	editedTemplates := (input.ListingTemplate != nil && *input.ListingTemplate != "") || input.ComponentListingTemplate != ""
	if err := s.validate(ctx, element, editedTemplates); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, element)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("listing.element.create", "element_id", created.ID, "element_key", created.Key, "list_type", created.ListType)
	return created, nil
}

func (s *service) Update(ctx context.Context, input UpdateElementInput) (*Element, error) {
	if input.ID == uuid.Nil {
		return nil, ErrElementIDRequired
	}
	element, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		element.Title = strings.TrimSpace(*input.Title)
	}
	if input.Key != nil {
		key, err := elementKey(*input.Key, element.Title)
		if err != nil {
			return nil, err
		}
		if key != element.Key {
			if err := s.ensureKeyAvailable(ctx, key, element.ID); err != nil {
				return nil, err
			}
		}
		element.Key = key
	}
	assignInt(&element.PerPage, input.PerPage)
	assignString(&element.SortBy, input.SortBy)
	assignString(&element.CustomSort, input.CustomSort)
	assignString(&element.SortDir, input.SortDir)
	assignString(&element.ListType, input.ListType)
	assignInt(&element.Depth, input.Depth)
	assignBool(&element.StrictType, input.StrictType)
	assignBool(&element.AllowDrilldown, input.AllowDrilldown)
	assignString(&element.ComponentFilterName, input.ComponentFilterName)
	assignString(&element.ComponentFilterColumn, input.ComponentFilterColumn)
	assignString(&element.ListingTemplateFile, input.ListingTemplateFile)
	assignString(&element.ComponentListingTemplateFile, input.ComponentListingTemplateFile)
	if input.ListingTemplate != nil {
		element.ListingTemplate = *input.ListingTemplate
	}
	if input.ComponentListingTemplate != nil {
		element.ComponentListingTemplate = *input.ComponentListingTemplate
	}
	if input.ComponentFilterWhere != nil {
		element.ComponentFilterWhere = maps.Clone(input.ComponentFilterWhere)
	}
	switch {
	case input.ClearListingSource:
		element.ListingSourceID = nil
	case input.ListingSourceID != nil:
		element.ListingSourceID = cloneUUIDPtr(input.ListingSourceID)
	}
	if input.UpdatedBy != uuid.Nil {
		element.UpdatedBy = input.UpdatedBy
	}
	element.UpdatedAt = s.now()

	editedTemplates := (input.ListingTemplate != nil && *input.ListingTemplate != "") ||
		(input.ComponentListingTemplate != nil && *input.ComponentListingTemplate != "")
	if err := s.validate(ctx, element, editedTemplates); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, element)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("listing.element.update", "element_id", updated.ID, "element_key", updated.Key)
	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Element, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByKey(ctx context.Context, key string) (*Element, error) {
	return s.repo.GetByKey(ctx, strings.ToLower(strings.TrimSpace(key)))
}

func (s *service) List(ctx context.Context) ([]*Element, error) {
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("listing.element.delete", "element_id", id)
	return nil
}

// validate checks the element against the configuration schema and the
// catalog. editedTemplates reports whether the caller supplied template
// strings, which are rejected while editable templates are disabled.
func (s *service) validate(ctx context.Context, element *Element, editedTemplates bool) error {
	if err := s.validator.Validate(element); err != nil {
		return err
	}

	catalog := s.graph.Catalog()
	if !catalog.Has(element.ListType) {
		return fmt.Errorf("%w: %s", ErrListTypeUnknown, element.ListType)
	}
	if element.SortBy != "" && !catalog.HasField(element.ListType, element.SortBy) {
		return fmt.Errorf("%w: %s.%s", ErrSortFieldUnknown, element.ListType, element.SortBy)
	}

	if element.ListingSourceID != nil {
		source, err := s.graph.GetRecord(ctx, *element.ListingSourceID)
		if err != nil {
			var nf *records.NotFoundError
			if errors.As(err, &nf) {
				return fmt.Errorf("%w: %s", ErrListingSourceInvalid, element.ListingSourceID)
			}
			return err
		}
		if sourceType := s.EffectiveSourceType(element); !catalog.IsA(source.Type, sourceType) {
			return fmt.Errorf("%w: %s is %s, want %s", ErrListingSourceInvalid, source.ID, source.Type, sourceType)
		}
	}

	if element.ComponentFilterName == "" {
		if element.ComponentFilterColumn != "" || len(element.ComponentFilterWhere) > 0 {
			return ErrComponentRelationMissing
		}
	} else {
		rel, ok := catalog.Relation(element.ListType, element.ComponentFilterName)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrComponentRelationUnknown, element.ListType, element.ComponentFilterName)
		}
		if element.ComponentFilterColumn != "" && !catalog.HasField(rel.Target, element.ComponentFilterColumn) {
			return fmt.Errorf("%w: %s.%s", ErrComponentColumnUnknown, rel.Target, element.ComponentFilterColumn)
		}
		for field := range element.ComponentFilterWhere {
			if !catalog.HasField(rel.Target, field) {
				return fmt.Errorf("%w: %s.%s", ErrComponentColumnUnknown, rel.Target, field)
			}
		}
	}

	if s.templates.CMSTemplatesDisabled && editedTemplates {
		return ErrTemplatesDisabled
	}
	if element.ListingTemplateFile != "" || element.ComponentListingTemplateFile != "" {
		files, err := s.TemplateFiles()
		if err != nil {
			return err
		}
		for _, file := range []string{element.ListingTemplateFile, element.ComponentListingTemplateFile} {
			if _, ok := files[file]; file != "" && !ok {
				return fmt.Errorf("%w: %s", ErrTemplateFileUnknown, file)
			}
		}
	}
	return nil
}

func (s *service) ensureKeyAvailable(ctx context.Context, key string, id uuid.UUID) error {
	existing, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil
		}
		return err
	}
	if existing.ID != id {
		return fmt.Errorf("%w: %s", ErrElementKeyExists, key)
	}
	return nil
}

// newID derives the element ID from its normalized key unless a generator
// was configured.
func (s *service) newID(key string) uuid.UUID {
	if s.id != nil {
		return s.id()
	}
	return identity.ElementUUID(key)
}

// elementKey normalizes key, deriving it from title when empty.
func elementKey(key, title string) (string, error) {
	source := strings.TrimSpace(key)
	if source == "" {
		source = strings.TrimSpace(title)
	}
	if source == "" {
		return "", ErrElementKeyRequired
	}
	normalized, err := goslug.Normalize(source)
	if err != nil || normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrElementKeyRequired, source)
	}
	return normalized, nil
}

func assignString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func assignInt(dst *int, value *int) {
	if value != nil {
		*dst = *value
	}
}

func assignBool(dst *bool, value *bool) {
	if value != nil {
		*dst = *value
	}
}

func cloneUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	cloned := *id
	return &cloned
}

func sortedNames(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
