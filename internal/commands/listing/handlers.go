package listingcmd

import (
	"context"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/commands"
	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/validation"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

const (
	elementNotFoundCode = "LISTING_ELEMENT_NOT_FOUND"
	elementConflictCode = "LISTING_ELEMENT_CONFLICT"
	elementInvalidCode  = "LISTING_ELEMENT_INVALID"
)

var invalidElementErrors = []error{
	validation.ErrSchemaValidation,
	listing.ErrElementKeyRequired,
	listing.ErrListTypeUnknown,
	listing.ErrSortFieldUnknown,
	listing.ErrListingSourceInvalid,
	listing.ErrComponentRelationUnknown,
	listing.ErrComponentRelationMissing,
	listing.ErrComponentColumnUnknown,
	listing.ErrTemplateFileUnknown,
	listing.ErrTemplatesDisabled,
}

// categorize tags listing service errors so transports can map them.
func categorize(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	var nf *listing.NotFoundError
	switch {
	case errors.As(err, &nf), errors.Is(err, listing.ErrComponentNotFound):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, err.Error()).WithTextCode(elementNotFoundCode)
	case errors.Is(err, listing.ErrElementKeyExists):
		return goerrors.Wrap(err, goerrors.CategoryConflict, err.Error()).WithTextCode(elementConflictCode)
	}
	for _, target := range invalidElementErrors {
		if errors.Is(err, target) {
			return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).WithTextCode(elementInvalidCode)
		}
	}
	return err
}

// UpsertElementHandler creates or updates elements.
type UpsertElementHandler struct {
	inner *commands.Handler[UpsertElementCommand]
}

// NewUpsertElementHandler constructs a handler wired to service.
func NewUpsertElementHandler(service listing.Service, logger interfaces.Logger, opts ...commands.HandlerOption[UpsertElementCommand]) *UpsertElementHandler {
	logger = commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg UpsertElementCommand) error {
		existing, err := findElement(ctx, service, msg.ID, msg.Key)
		if err != nil {
			return categorize(err)
		}

		var (
			element *listing.Element
			created bool
		)
		if existing == nil {
			element, err = service.Create(ctx, createInput(msg))
			created = true
		} else {
			element, err = service.Update(ctx, updateInput(existing.ID, msg))
		}
		if err != nil {
			return categorize(err)
		}
		if msg.Output != nil {
			*msg.Output = UpsertResult{Element: element, Created: created}
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[UpsertElementCommand]{
		commands.WithLogger[UpsertElementCommand](logger),
		commands.WithOperation[UpsertElementCommand]("elements.upsert"),
		commands.WithMessageFields(func(msg UpsertElementCommand) map[string]any {
			fields := map[string]any{}
			if msg.ID != uuid.Nil {
				fields["element_id"] = msg.ID
			}
			if key := strings.TrimSpace(msg.Key); key != "" {
				fields["element_key"] = key
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[UpsertElementCommand](logger)),
	}
	return &UpsertElementHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[UpsertElementCommand].
func (h *UpsertElementHandler) Execute(ctx context.Context, msg UpsertElementCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DeleteElementHandler removes elements.
type DeleteElementHandler struct {
	inner *commands.Handler[DeleteElementCommand]
}

// NewDeleteElementHandler constructs a handler wired to service.
func NewDeleteElementHandler(service listing.Service, logger interfaces.Logger, opts ...commands.HandlerOption[DeleteElementCommand]) *DeleteElementHandler {
	logger = commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg DeleteElementCommand) error {
		existing, err := findElement(ctx, service, msg.ID, msg.Key)
		if err != nil {
			return categorize(err)
		}
		if existing == nil {
			key := msg.Key
			if msg.ID != uuid.Nil {
				key = msg.ID.String()
			}
			return categorize(&listing.NotFoundError{Resource: "listing_element", Key: key})
		}
		return categorize(service.Delete(ctx, existing.ID))
	}

	handlerOpts := []commands.HandlerOption[DeleteElementCommand]{
		commands.WithLogger[DeleteElementCommand](logger),
		commands.WithOperation[DeleteElementCommand]("elements.delete"),
		commands.WithTelemetry(commands.DefaultTelemetry[DeleteElementCommand](logger)),
	}
	return &DeleteElementHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[DeleteElementCommand].
func (h *DeleteElementHandler) Execute(ctx context.Context, msg DeleteElementCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RenderElementHandler renders elements by key.
type RenderElementHandler struct {
	inner *commands.Handler[RenderElementCommand]
}

// NewRenderElementHandler constructs a handler wired to service.
func NewRenderElementHandler(service listing.Service, logger interfaces.Logger, opts ...commands.HandlerOption[RenderElementCommand]) *RenderElementHandler {
	logger = commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg RenderElementCommand) error {
		element, err := service.GetByKey(ctx, msg.Key)
		if err != nil {
			return categorize(err)
		}
		html, err := service.Render(ctx, element, msg.request())
		if err != nil {
			return categorize(err)
		}
		if msg.Output != nil {
			*msg.Output = RenderResult{ElementID: element.ID, HTML: html}
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[RenderElementCommand]{
		commands.WithLogger[RenderElementCommand](logger),
		commands.WithOperation[RenderElementCommand]("elements.render"),
		commands.WithMessageFields(func(msg RenderElementCommand) map[string]any {
			fields := map[string]any{"element_key": msg.Key}
			if msg.Action != "" {
				fields["action"] = msg.Action
			}
			return fields
		}),
	}
	return &RenderElementHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[RenderElementCommand].
func (h *RenderElementHandler) Execute(ctx context.Context, msg RenderElementCommand) error {
	return h.inner.Execute(ctx, msg)
}

// findElement looks up by ID first, then by key. A miss returns nil without
// an error.
func findElement(ctx context.Context, service listing.Service, id uuid.UUID, key string) (*listing.Element, error) {
	var nf *listing.NotFoundError
	if id != uuid.Nil {
		element, err := service.Get(ctx, id)
		if err == nil {
			return element, nil
		}
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	if strings.TrimSpace(key) == "" {
		return nil, nil
	}
	element, err := service.GetByKey(ctx, key)
	if err != nil {
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return element, nil
}

func createInput(msg UpsertElementCommand) listing.CreateElementInput {
	return listing.CreateElementInput{
		ID:                           msg.ID,
		Key:                          msg.Key,
		Title:                        msg.Title,
		PerPage:                      msg.PerPage,
		SortBy:                       msg.SortBy,
		CustomSort:                   msg.CustomSort,
		SortDir:                      msg.SortDir,
		ListType:                     msg.ListType,
		ListingSourceID:              msg.ListingSourceID,
		Depth:                        msg.Depth,
		StrictType:                   msg.StrictType,
		AllowDrilldown:               msg.AllowDrilldown,
		ComponentFilterName:          msg.ComponentFilterName,
		ComponentFilterColumn:        msg.ComponentFilterColumn,
		ComponentFilterWhere:         msg.ComponentFilterWhere,
		ListingTemplate:              msg.ListingTemplate,
		ComponentListingTemplate:     msg.ComponentListingTemplate,
		ListingTemplateFile:          msg.ListingTemplateFile,
		ComponentListingTemplateFile: msg.ComponentListingTemplateFile,
		CreatedBy:                    msg.Actor,
	}
}

// updateInput replaces the whole configuration. Omitted optional values fall
// back to what the element already holds.
func updateInput(id uuid.UUID, msg UpsertElementCommand) listing.UpdateElementInput {
	where := msg.ComponentFilterWhere
	if where == nil {
		where = map[string]string{}
	}
	input := listing.UpdateElementInput{
		ID:                           id,
		Title:                        &msg.Title,
		PerPage:                      msg.PerPage,
		CustomSort:                   &msg.CustomSort,
		SortBy:                       &msg.SortBy,
		Depth:                        &msg.Depth,
		StrictType:                   &msg.StrictType,
		AllowDrilldown:               &msg.AllowDrilldown,
		ComponentFilterName:          &msg.ComponentFilterName,
		ComponentFilterColumn:        &msg.ComponentFilterColumn,
		ComponentFilterWhere:         where,
		ListingTemplate:              msg.ListingTemplate,
		ComponentListingTemplate:     &msg.ComponentListingTemplate,
		ListingTemplateFile:          &msg.ListingTemplateFile,
		ComponentListingTemplateFile: &msg.ComponentListingTemplateFile,
		ListingSourceID:              msg.ListingSourceID,
		ClearListingSource:           msg.ListingSourceID == nil,
		UpdatedBy:                    msg.Actor,
	}
	if strings.TrimSpace(msg.Key) != "" {
		input.Key = &msg.Key
	}
	if msg.SortDir != "" {
		input.SortDir = &msg.SortDir
	}
	if msg.ListType != "" {
		input.ListType = &msg.ListType
	}
	return input
}
