package listingcmd

import (
	"errors"

	"github.com/goliatone/go-cms-listing/internal/commands"
	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

// CommandRegistry is the registration contract used when wiring handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the element command handlers.
type HandlerSet struct {
	Upsert *UpsertElementHandler
	Delete *DeleteElementHandler
	Render *RenderElementHandler
}

// RegisterListingCommands builds the element handlers and registers them
// with reg when it is not nil.
func RegisterListingCommands(reg CommandRegistry, service listing.Service, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("listing command registration: service is nil")
	}
	logger := commands.CommandLogger(provider, "elements")

	set := &HandlerSet{
		Upsert: NewUpsertElementHandler(service, logger),
		Delete: NewDeleteElementHandler(service, logger),
		Render: NewRenderElementHandler(service, logger),
	}
	if reg != nil {
		for _, handler := range []any{set.Upsert, set.Delete, set.Render} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
