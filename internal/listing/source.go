package listing

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/records"
)

// EffectiveSourceType returns the type the listing source tree is made of.
// Listed types can live beneath a different holder type, which
// TypeSourceMap records; otherwise the base type of the list type is used.
func (s *service) EffectiveSourceType(element *Element) string {
	listType := s.listType(element)
	if mapped, ok := s.listing.TypeSourceMap[listType]; ok && mapped != "" {
		return mapped
	}
	return s.graph.Catalog().BaseType(listType)
}

// ListingSource returns the record the listing is scoped under, or nil when
// no viewable source is configured. With drilldown enabled the request
// action may name a record below the configured source, which then replaces
// it.
func (s *service) ListingSource(ctx context.Context, element *Element, req Request) (*records.Record, error) {
	if element == nil || element.ListingSourceID == nil {
		return nil, nil
	}
	sourceType := s.EffectiveSourceType(element)
	if sourceType == "" {
		return nil, nil
	}

	source, err := s.lookupOfType(ctx, *element.ListingSourceID, sourceType)
	if err != nil || source == nil {
		return nil, err
	}

	if element.AllowDrilldown && s.features.Drilldown {
		candidate, err := s.drilldownCandidate(ctx, sourceType, req.Action)
		if err != nil {
			return nil, err
		}
		if candidate != nil {
			below, err := s.isAtOrBelow(ctx, candidate, source.ID)
			if err != nil {
				return nil, err
			}
			if below {
				s.logger.Debug("listing.source.drilldown", "source_id", source.ID, "drilldown_id", candidate.ID)
				source = candidate
			}
		}
	}

	if !s.canView(ctx, source, req) {
		return nil, nil
	}
	return source, nil
}

// drilldownCandidate resolves the action as a record ID or, failing that, a
// slug of sourceType.
func (s *service) drilldownCandidate(ctx context.Context, sourceType, action string) (*records.Record, error) {
	action = decodeAction(action)
	if action == "" {
		return nil, nil
	}
	if id, err := uuid.Parse(action); err == nil {
		return s.lookupOfType(ctx, id, sourceType)
	}
	record, err := s.graph.GetRecordBySlug(ctx, sourceType, action)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (s *service) isAtOrBelow(ctx context.Context, record *records.Record, ancestorID uuid.UUID) (bool, error) {
	if record.ID == ancestorID {
		return true, nil
	}
	ancestors, err := s.graph.Ancestors(ctx, record.ID)
	if err != nil {
		return false, err
	}
	for _, ancestor := range ancestors {
		if ancestor.ID == ancestorID {
			return true, nil
		}
	}
	return false, nil
}

// lookupOfType returns nil without error when id is missing or not a recordType.
func (s *service) lookupOfType(ctx context.Context, id uuid.UUID, recordType string) (*records.Record, error) {
	record, err := s.graph.GetRecord(ctx, id)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !s.graph.Catalog().IsA(record.Type, recordType) {
		return nil, nil
	}
	return record, nil
}

func (s *service) listType(element *Element) string {
	if element != nil && element.ListType != "" {
		return element.ListType
	}
	return s.listing.DefaultListType
}

func isRecordNotFound(err error) bool {
	var nf *records.NotFoundError
	return errors.As(err, &nf)
}

// decodeAction URL-decodes the request action, keeping the raw value when it
// is not valid escaping.
func decodeAction(action string) string {
	action = strings.TrimSpace(action)
	if decoded, err := url.QueryUnescape(action); err == nil {
		return strings.TrimSpace(decoded)
	}
	return action
}
