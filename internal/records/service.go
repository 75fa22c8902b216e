package records

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-cms-listing/internal/identity"
	"github.com/goliatone/go-cms-listing/internal/logging"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
	goslug "github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

// Service exposes the content graph the listing element queries.
type Service interface {
	Catalog() *Catalog

	CreateRecord(ctx context.Context, input CreateRecordInput) (*Record, error)
	UpdateRecord(ctx context.Context, input UpdateRecordInput) (*Record, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	GetRecordBySlug(ctx context.Context, recordType, slug string) (*Record, error)
	DeleteRecord(ctx context.Context, id uuid.UUID) error

	Relate(ctx context.Context, recordID uuid.UUID, name string, targetIDs []uuid.UUID) ([]*Relation, error)
	Related(ctx context.Context, recordID uuid.UUID, name string) ([]*Record, error)

	Children(ctx context.Context, id uuid.UUID) ([]*Record, error)
	Parent(ctx context.Context, id uuid.UUID) (*Record, error)
	Ancestors(ctx context.Context, id uuid.UUID) ([]*Record, error)
	DescendantIDs(ctx context.Context, id uuid.UUID, depth int) ([]uuid.UUID, error)

	Find(ctx context.Context, query Query) (*Result, error)
}

// CreateRecordInput captures the fields required to create a record.
type CreateRecordInput struct {
	ID       uuid.UUID
	Type     string
	ParentID *uuid.UUID
	Title    string
	Slug     string
	Sort     int
	Status   string
	Fields   map[string]any
}

// UpdateRecordInput carries mutable record fields. Nil pointers are left untouched.
type UpdateRecordInput struct {
	ID          uuid.UUID
	ParentID    *uuid.UUID
	ClearParent bool
	Title       *string
	Slug        *string
	Sort        *int
	Status      *string
	Fields      map[string]any
}

var (
	ErrRecordTypeUnknown      = errors.New("records: type not registered")
	ErrRecordTitleRequired    = errors.New("records: title required")
	ErrRecordSlugInvalid      = errors.New("records: slug invalid")
	ErrRecordSlugExists       = errors.New("records: slug already used by a record of the same base type")
	ErrRecordStatusInvalid    = errors.New("records: status must be draft or published")
	ErrRecordFieldUnknown     = errors.New("records: field not declared on type")
	ErrRecordNotHierarchical  = errors.New("records: type does not accept a parent")
	ErrRecordParentType       = errors.New("records: parent type not allowed")
	ErrRecordParentCycle      = errors.New("records: parent would create a cycle")
	ErrRecordHasChildren      = errors.New("records: record still has children")
	ErrRecordIDRequired       = errors.New("records: record id required")
	ErrRelationUnknown        = errors.New("records: relation not declared on type")
	ErrRelationTargetMismatch = errors.New("records: relation target has the wrong type")
)

// IDGenerator produces unique identifiers.
type IDGenerator func() uuid.UUID

// ServiceOption configures record service behaviour.
type ServiceOption func(*service)

// WithClock overrides the time source used by the service.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the ID generator.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger wires a logger for record operations.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	catalog   *Catalog
	records   RecordRepository
	relations RelationRepository
	now       func() time.Time
	id        IDGenerator
	logger    interfaces.Logger
}

// NewService constructs a record service.
func NewService(catalog *Catalog, recordRepo RecordRepository, relationRepo RelationRepository, opts ...ServiceOption) Service {
	if catalog == nil {
		catalog, _ = NewCatalog()
	}
	s := &service{
		catalog:   catalog,
		records:   recordRepo,
		relations: relationRepo,
		now:       time.Now,
		id:        uuid.New,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Catalog() *Catalog {
	return s.catalog
}

func (s *service) CreateRecord(ctx context.Context, input CreateRecordInput) (*Record, error) {
	recordType := strings.TrimSpace(input.Type)
	if !s.catalog.Has(recordType) {
		return nil, fmt.Errorf("%w: %s", ErrRecordTypeUnknown, recordType)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrRecordTitleRequired
	}
	status, err := normalizeStatus(input.Status)
	if err != nil {
		return nil, err
	}
	if err := s.validateFields(recordType, input.Fields); err != nil {
		return nil, err
	}

	slug := input.Slug
	if strings.TrimSpace(slug) == "" {
		slug = title
	}
	slug, err = normalizeSlug(slug)
	if err != nil {
		return nil, err
	}

	id := input.ID
	if id == uuid.Nil {
		id = s.id()
	}
	if err := s.ensureSlugAvailable(ctx, recordType, slug, id); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if err := s.validateParent(ctx, recordType, id, *input.ParentID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	record := &Record{
		ID:        id,
		Type:      recordType,
		ParentID:  cloneUUIDPtr(input.ParentID),
		Title:     title,
		Slug:      slug,
		Sort:      input.Sort,
		Status:    status,
		Fields:    maps.Clone(input.Fields),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.records.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("records.create", "record_id", created.ID, "type", created.Type, "slug", created.Slug)
	return created, nil
}

func (s *service) UpdateRecord(ctx context.Context, input UpdateRecordInput) (*Record, error) {
	if input.ID == uuid.Nil {
		return nil, ErrRecordIDRequired
	}
	record, err := s.records.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrRecordTitleRequired
		}
		record.Title = title
	}
	if input.Slug != nil {
		slug, err := normalizeSlug(*input.Slug)
		if err != nil {
			return nil, err
		}
		if slug != record.Slug {
			if err := s.ensureSlugAvailable(ctx, record.Type, slug, record.ID); err != nil {
				return nil, err
			}
		}
		record.Slug = slug
	}
	if input.Status != nil {
		status, err := normalizeStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		record.Status = status
	}
	if input.Sort != nil {
		record.Sort = *input.Sort
	}
	if input.Fields != nil {
		if err := s.validateFields(record.Type, input.Fields); err != nil {
			return nil, err
		}
		record.Fields = maps.Clone(input.Fields)
	}
	switch {
	case input.ClearParent:
		record.ParentID = nil
	case input.ParentID != nil:
		if err := s.validateParent(ctx, record.Type, record.ID, *input.ParentID); err != nil {
			return nil, err
		}
		record.ParentID = cloneUUIDPtr(input.ParentID)
	}
	record.UpdatedAt = s.now()

	return s.records.Update(ctx, record)
}

func (s *service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.records.GetByID(ctx, id)
}

// GetRecordBySlug looks the slug up across recordType and its subtypes.
func (s *service) GetRecordBySlug(ctx context.Context, recordType, slug string) (*Record, error) {
	types := s.catalog.Descendants(recordType)
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordTypeUnknown, recordType)
	}
	items, _, err := s.records.Find(ctx, Query{
		Types:         types,
		Where:         map[string]any{"Slug": strings.TrimSpace(slug)},
		IncludeDrafts: true,
		Limit:         1,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &NotFoundError{Resource: "record", Key: recordType + "/" + slug}
	}
	return items[0], nil
}

func (s *service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	if _, err := s.records.GetByID(ctx, id); err != nil {
		return err
	}
	children, err := s.records.ListByParent(ctx, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return ErrRecordHasChildren
	}
	if err := s.relations.DeleteByRecord(ctx, id); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("records.delete", "record_id", id)
	return nil
}

func (s *service) Relate(ctx context.Context, recordID uuid.UUID, name string, targetIDs []uuid.UUID) ([]*Relation, error) {
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	rel, ok := s.catalog.Relation(record.Type, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrRelationUnknown, record.Type, name)
	}

	now := s.now()
	rows := make([]*Relation, 0, len(targetIDs))
	seen := map[uuid.UUID]struct{}{}
	for _, targetID := range targetIDs {
		if _, dup := seen[targetID]; dup {
			continue
		}
		seen[targetID] = struct{}{}
		target, err := s.records.GetByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if !s.catalog.IsA(target.Type, rel.Target) {
			return nil, fmt.Errorf("%w: %s is %s, want %s", ErrRelationTargetMismatch, target.ID, target.Type, rel.Target)
		}
		rows = append(rows, &Relation{
			ID:        identity.RelationUUID(recordID, name, targetID),
			RecordID:  recordID,
			Name:      name,
			TargetID:  targetID,
			Position:  len(rows),
			CreatedAt: now,
		})
	}
	if err := s.relations.Replace(ctx, recordID, name, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) Related(ctx context.Context, recordID uuid.UUID, name string) ([]*Record, error) {
	rows, err := s.relations.ListByRecord(ctx, recordID, name)
	if err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(rows))
	for _, row := range rows {
		target, err := s.records.GetByID(ctx, row.TargetID)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return nil, err
		}
		out = append(out, target)
	}
	return out, nil
}

func (s *service) Children(ctx context.Context, id uuid.UUID) ([]*Record, error) {
	return s.records.ListByParent(ctx, id)
}

// Parent returns nil without error for root records.
func (s *service) Parent(ctx context.Context, id uuid.UUID) (*Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.ParentID == nil {
		return nil, nil
	}
	return s.records.GetByID(ctx, *record.ParentID)
}

// Ancestors returns the parent chain, nearest first.
func (s *service) Ancestors(ctx context.Context, id uuid.UUID) ([]*Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []*Record
	seen := map[uuid.UUID]struct{}{record.ID: {}}
	for record.ParentID != nil {
		if _, loop := seen[*record.ParentID]; loop {
			break
		}
		parent, err := s.records.GetByID(ctx, *record.ParentID)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				break
			}
			return nil, err
		}
		seen[parent.ID] = struct{}{}
		out = append(out, parent)
		record = parent
	}
	return out, nil
}

// DescendantIDs collects descendants of id. The root sits at level 1 and
// levels at or beyond depth are not expanded, so depth 2 yields the children
// and depth n yields n-1 generations.
func (s *service) DescendantIDs(ctx context.Context, id uuid.UUID, depth int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	seen := map[uuid.UUID]struct{}{id: {}}
	if err := s.collectDescendants(ctx, id, 1, depth, &ids, seen); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *service) collectDescendants(ctx context.Context, parentID uuid.UUID, level, depth int, ids *[]uuid.UUID, seen map[uuid.UUID]struct{}) error {
	if level >= depth {
		return nil
	}
	children, err := s.records.ListByParent(ctx, parentID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if _, dup := seen[child.ID]; dup {
			continue
		}
		seen[child.ID] = struct{}{}
		*ids = append(*ids, child.ID)
		if err := s.collectDescendants(ctx, child.ID, level+1, depth, ids, seen); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Find(ctx context.Context, query Query) (*Result, error) {
	query.SortField = s.resolveSortField(query.Types, query.SortField)

	if query.Relation != nil {
		rows, err := s.relations.ListByTargets(ctx, query.Relation.Name, query.Relation.TargetIDs)
		if err != nil {
			return nil, err
		}
		related := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			if !slices.Contains(related, row.RecordID) {
				related = append(related, row.RecordID)
			}
		}
		if len(query.IDs) > 0 {
			related = slices.DeleteFunc(related, func(id uuid.UUID) bool {
				return !slices.Contains(query.IDs, id)
			})
		}
		if len(related) == 0 {
			return &Result{Items: []*Record{}}, nil
		}
		query.IDs = related
		query.Relation = nil
	}

	items, total, err := s.records.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Result{Items: items, Total: total}, nil
}

// resolveSortField keeps field when one of the queried types can select it
// and falls back to Title otherwise.
func (s *service) resolveSortField(types []string, field string) string {
	field = canonicalField(strings.TrimSpace(field))
	if field == "" {
		return "Title"
	}
	if len(types) == 0 {
		if _, ok := columnFor(field); ok {
			return field
		}
		return "Title"
	}
	for _, recordType := range types {
		if s.catalog.HasField(recordType, field) {
			return field
		}
	}
	return "Title"
}

func (s *service) validateFields(recordType string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	selectable := s.catalog.SelectableFields(recordType)
	for key := range fields {
		if _, core := columnFor(key); core || !slices.Contains(selectable, key) {
			return fmt.Errorf("%w: %s.%s", ErrRecordFieldUnknown, recordType, key)
		}
	}
	return nil
}

func (s *service) validateParent(ctx context.Context, recordType string, id, parentID uuid.UUID) error {
	parentType := s.catalog.ParentType(recordType)
	if parentType == "" {
		return fmt.Errorf("%w: %s", ErrRecordNotHierarchical, recordType)
	}
	if parentID == id {
		return ErrRecordParentCycle
	}
	parent, err := s.records.GetByID(ctx, parentID)
	if err != nil {
		return err
	}
	if !s.catalog.IsA(parent.Type, parentType) {
		return fmt.Errorf("%w: %s under %s", ErrRecordParentType, recordType, parent.Type)
	}
	ancestors, err := s.Ancestors(ctx, parentID)
	if err != nil {
		return err
	}
	for _, ancestor := range ancestors {
		if ancestor.ID == id {
			return ErrRecordParentCycle
		}
	}
	return nil
}

func (s *service) ensureSlugAvailable(ctx context.Context, recordType, slug string, id uuid.UUID) error {
	family := s.catalog.Descendants(s.catalog.BaseType(recordType))
	items, _, err := s.records.Find(ctx, Query{
		Types:         family,
		Where:         map[string]any{"Slug": slug},
		IncludeDrafts: true,
		Limit:         1,
	})
	if err != nil {
		return err
	}
	if len(items) > 0 && items[0].ID != id {
		return fmt.Errorf("%w: %s", ErrRecordSlugExists, slug)
	}
	return nil
}

func normalizeSlug(value string) (string, error) {
	slug, err := goslug.Normalize(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecordSlugInvalid, err)
	}
	if slug == "" || !goslug.IsValid(slug) {
		return "", fmt.Errorf("%w: %q", ErrRecordSlugInvalid, value)
	}
	return slug, nil
}

func normalizeStatus(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", StatusPublished:
		return StatusPublished, nil
	case StatusDraft:
		return StatusDraft, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrRecordStatusInvalid, value)
	}
}

func cloneUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	cloned := *id
	return &cloned
}
