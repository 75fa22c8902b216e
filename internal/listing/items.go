package listing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	goslug "github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/logging"
	"github.com/goliatone/go-cms-listing/internal/records"
)

const (
	sqlAsc  = "ASC"
	sqlDesc = "DESC"
)

// ListingItems queries the records an element lists for req.
func (s *service) ListingItems(ctx context.Context, element *Element, req Request) (*Listing, error) {
	if element == nil {
		return &Listing{Items: []ItemView{}, Pagination: NewPaginatedList(nil, 0, 0, 0, "", req.URL)}, nil
	}
	logger := logging.WithElementContext(s.logger, element.ID.String(), element.Key, req.Action)
	catalog := s.graph.Catalog()
	listType := s.listType(element)
	if !catalog.Has(listType) {
		return nil, fmt.Errorf("%w: %s", ErrListTypeUnknown, listType)
	}

	source, err := s.ListingSource(ctx, element, req)
	if err != nil {
		return nil, err
	}

	query := records.Query{IncludeDrafts: req.Preview}
	if source != nil && catalog.HasField(listType, "ParentID") {
		ids, err := s.graph.DescendantIDs(ctx, source.ID, element.Depth)
		if err != nil {
			return nil, err
		}
		query.ParentIDs = append(ids, source.ID)
	}
	if element.StrictType {
		query.Types = []string{listType}
	} else {
		query.Types = catalog.Descendants(listType)
	}

	sort := "Title"
	if element.SortBy != "" && catalog.HasField(listType, element.SortBy) {
		sort = element.SortBy
	}
	dir := sqlDesc
	if element.Ascending() {
		dir = sqlAsc
	}
	if element.CustomSort != "" {
		if requested := strings.TrimSpace(req.GetVar(element.CustomSort)); requested != "" {
			if catalog.HasField(listType, requested) {
				sort = requested
			}
			dir = sqlDesc
			if req.GetVar(element.CustomSort+"_dir") == "asc" {
				dir = sqlAsc
			}
		}
	}
	query.SortField = sort
	query.SortDesc = dir == sqlDesc

	pageVar := element.PageVar(s.listing.PageVarPrefix)
	offset := 0
	if element.PerPage > 0 {
		offset, _ = strconv.Atoi(req.GetVar(pageVar))
		if offset < 0 {
			offset = 0
		}
		query.Limit = element.PerPage
		query.Offset = offset
	}

	var components []ItemView
	if element.ComponentFilterName != "" && s.features.ComponentFilter {
		if tag := decodeAction(req.Action); tag != "" {
			targets, err := s.matchComponents(ctx, element, tag, req.Preview)
			if err != nil {
				return nil, err
			}
			if len(targets) == 0 {
				logger.Debug("listing.component.not_found", "relation", element.ComponentFilterName, "tag", tag)
				return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, tag)
			}
			ids := make([]uuid.UUID, 0, len(targets))
			for _, target := range targets {
				ids = append(ids, target.ID)
				components = append(components, s.view(ctx, target))
			}
			query.Relation = &records.RelationFilter{Name: element.ComponentFilterName, TargetIDs: ids}
		}
	}

	for _, modify := range s.modifiers {
		if err := modify(ctx, element, &query); err != nil {
			return nil, err
		}
	}

	result, err := s.graph.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	items := s.views(ctx, result.Items)
	logger.Debug("listing.items", "count", len(items), "total", result.Total, "sort", sort, "dir", dir)

	listing := &Listing{
		Items:      items,
		Pagination: NewPaginatedList(items, result.Total, element.PerPage, offset, pageVar, req.URL),
		Sort:       sort,
		Dir:        dir,
		Link:       req.URL,
		Components: components,
	}
	if source != nil {
		view := s.view(ctx, source)
		listing.Source = &view
	}
	return listing, nil
}

// ComponentListingItems lists the relation targets, constrained by
// ComponentFilterWhere. An undeclared relation yields no items.
func (s *service) ComponentListingItems(ctx context.Context, element *Element) ([]ItemView, error) {
	targets, err := s.componentTargets(ctx, element, nil, false)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, targets), nil
}

// IsComponentListing reports whether the element shows the relation targets
// instead of the filtered items.
func (s *service) IsComponentListing(element *Element, req Request) bool {
	return element != nil &&
		s.features.ComponentFilter &&
		element.ComponentFilterName != "" &&
		strings.TrimSpace(req.Action) == ""
}

// matchComponents returns the relation targets whose filter column equals
// tag. Without a column the tag is compared to target slugs.
func (s *service) matchComponents(ctx context.Context, element *Element, tag string, preview bool) ([]*records.Record, error) {
	column := element.ComponentFilterColumn
	value := tag
	if column == "" {
		column = "Slug"
		if normalized, err := goslug.Normalize(tag); err == nil && normalized != "" {
			value = normalized
		}
	}
	return s.componentTargets(ctx, element, map[string]any{column: value}, preview)
}

func (s *service) componentTargets(ctx context.Context, element *Element, extra map[string]any, preview bool) ([]*records.Record, error) {
	if element == nil || element.ComponentFilterName == "" {
		return []*records.Record{}, nil
	}
	catalog := s.graph.Catalog()
	rel, ok := catalog.Relation(s.listType(element), element.ComponentFilterName)
	if !ok {
		return []*records.Record{}, nil
	}

	where := make(map[string]any, len(element.ComponentFilterWhere)+len(extra))
	for field, value := range element.ComponentFilterWhere {
		where[field] = value
	}
	for field, value := range extra {
		where[field] = value
	}

	result, err := s.graph.Find(ctx, records.Query{
		Types:         catalog.Descendants(rel.Target),
		Where:         where,
		SortField:     "Title",
		IncludeDrafts: preview,
	})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (s *service) views(ctx context.Context, items []*records.Record) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, record := range items {
		out = append(out, s.view(ctx, record))
	}
	return out
}

func (s *service) view(ctx context.Context, record *records.Record) ItemView {
	link, err := s.links.Resolve(ctx, record)
	if err != nil {
		s.logger.Warn("listing.link.failed", "record_id", record.ID, "error", err)
		link = ""
	}
	return newItemView(record, link)
}
