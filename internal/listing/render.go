package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/logging"
)

// Render produces the element markup for req. Unsaved elements render
// nothing. Editable template strings win over template files, and an element
// with neither renders an empty string.
func (s *service) Render(ctx context.Context, element *Element, req Request) (string, error) {
	if element == nil || element.ID == uuid.Nil {
		return "", nil
	}
	logger := logging.WithElementContext(s.logger, element.ID.String(), element.Key, req.Action)
	logger.Debug("listing.render.start", "preview", req.Preview)

	data := map[string]any{
		"Element": element,
		"Title":   element.Title,
		"Link":    req.URL,
	}
	var source, file string
	if s.IsComponentListing(element, req) {
		items, err := s.ComponentListingItems(ctx, element)
		if err != nil {
			return "", err
		}
		data["Items"] = items
		source, file = element.ComponentListingTemplate, element.ComponentListingTemplateFile
	} else {
		listing, err := s.ListingItems(ctx, element, req)
		if err != nil {
			return "", err
		}
		data["Items"] = listing.Items
		data["Pagination"] = listing.Pagination
		data["Sort"] = listing.Sort
		data["Dir"] = listing.Dir
		data["Components"] = listing.Components
		if listing.Source != nil {
			data["Source"] = listing.Source
		}
		if listing.Link != "" {
			data["Link"] = listing.Link
		}
		source, file = element.ListingTemplate, element.ListingTemplateFile
	}

	if s.templates.CMSTemplatesDisabled {
		source = ""
	}
	if source == "" && file == "" {
		logger.Debug("listing.render.empty")
		return "", nil
	}
	if s.renderer == nil {
		return "", ErrRendererRequired
	}

	var (
		out string
		err error
	)
	if source != "" {
		out, err = s.renderer.RenderString(source, data)
	} else {
		out, err = s.renderer.RenderTemplate(file, data)
	}
	if err != nil {
		logger.Error("listing.render.failed", "error", err)
		return "", err
	}
	return out, nil
}
