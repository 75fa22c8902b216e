package listing

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	listingcmd "github.com/goliatone/go-cms-listing/internal/commands/listing"
	"github.com/goliatone/go-cms-listing/internal/di"
	"github.com/goliatone/go-cms-listing/internal/fixtures"
	listinghttp "github.com/goliatone/go-cms-listing/internal/http"
	"github.com/goliatone/go-cms-listing/internal/links"
	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/logging"
	"github.com/goliatone/go-cms-listing/internal/records"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

// ElementService exports the listing element service contract.
type ElementService = listing.Service

// RecordService exports the record graph contract.
type RecordService = records.Service

// Element exports the persisted element configuration.
type Element = listing.Element

// Request carries the per request listing inputs.
type Request = listing.Request

// CreateElementInput exports the element creation payload.
type CreateElementInput = listing.CreateElementInput

// UpdateElementInput exports the element update payload.
type UpdateElementInput = listing.UpdateElementInput

// Record exports the record graph node.
type Record = records.Record

// TypeDefinition declares a record type.
type TypeDefinition = records.TypeDefinition

// RelationDefinition declares a many-many relation on a record type.
type RelationDefinition = records.RelationDefinition

// CommandHandlers exports the element command handlers.
type CommandHandlers = listingcmd.HandlerSet

// FixtureResult summarises a fixture import.
type FixtureResult = fixtures.Result

// Option configures the module container.
type Option = di.Option

// ErrFixturesDirRequired is returned by LoadFixtures without a directory.
var ErrFixturesDirRequired = errors.New("listing: fixtures directory required")

// WithBunDB stores records and elements through bun.
func WithBunDB(db *bun.DB) Option { return di.WithBunDB(db) }

// WithCache overrides the repository cache used with bun storage.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return di.WithCache(service, serializer)
}

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

// WithTypes registers record types.
func WithTypes(defs ...TypeDefinition) Option { return di.WithTypes(defs...) }

// WithRecordService lists records from a host graph instead of the bundled store.
func WithRecordService(svc RecordService) Option { return di.WithRecordService(svc) }

// WithTemplateRenderer overrides the pongo2 renderer.
func WithTemplateRenderer(tr interfaces.TemplateRenderer) Option { return di.WithTemplate(tr) }

// WithLinkResolver overrides how item links are built.
func WithLinkResolver(resolver links.Resolver) Option { return di.WithLinkResolver(resolver) }

// WithElementOptions forwards options to the element service, such as
// listing.WithVisibility or listing.WithItemsModifier.
func WithElementOptions(opts ...listing.ServiceOption) Option {
	return di.WithListingOptions(opts...)
}

// WithCommandRegistry registers the element commands with a go-command registry.
func WithCommandRegistry(reg listingcmd.CommandRegistry) Option {
	return di.WithCommandRegistry(reg)
}

// Module represents the top level listing runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a listing module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Elements returns the element service.
func (m *Module) Elements() ElementService {
	return m.container.ListingService()
}

// Records returns the record graph.
func (m *Module) Records() RecordService {
	return m.container.RecordService()
}

// Renderer returns the template renderer.
func (m *Module) Renderer() interfaces.TemplateRenderer {
	return m.container.TemplateRenderer()
}

// Commands returns the element command handlers.
func (m *Module) Commands() *CommandHandlers {
	return m.container.Commands()
}

// CreateSchema creates the bun tables of the bundled stores.
func (m *Module) CreateSchema(ctx context.Context) error {
	return m.container.CreateSchema(ctx)
}

// Render renders the element stored under key.
func (m *Module) Render(ctx context.Context, key string, req Request) (string, error) {
	result := &listingcmd.RenderResult{}
	err := m.container.Commands().Render.Execute(ctx, listingcmd.RenderElementCommand{
		Key:     key,
		Action:  req.Action,
		Query:   req.Query,
		URL:     req.URL,
		Preview: req.Preview,
		Output:  result,
	})
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// RegisterRoutes mounts the public controller and the admin API on mux.
func (m *Module) RegisterRoutes(mux *http.ServeMux) error {
	logger := logging.HTTPLogger(m.container.LoggerProvider())
	admin := listinghttp.NewAdminAPI(
		listinghttp.WithElementService(m.container.ListingService()),
		listinghttp.WithCommands(m.container.Commands()),
		listinghttp.WithLogger(logger),
	)
	if err := admin.Register(mux); err != nil {
		return err
	}
	public := listinghttp.NewPublicController(
		listinghttp.WithPublicElementService(m.container.ListingService()),
		listinghttp.WithRenderHandler(m.container.Commands().Render),
		listinghttp.WithPreview(m.container.Config.Features.Preview),
		listinghttp.WithPublicLogger(logger),
	)
	return public.Register(mux)
}

// Handler returns a mux serving the public and admin routes.
func (m *Module) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	if err := m.RegisterRoutes(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

// LoadFixtures imports the Markdown records under dir. An empty dir falls
// back to the configured fixtures directory.
func (m *Module) LoadFixtures(ctx context.Context, dir string) (*FixtureResult, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = strings.TrimSpace(m.container.Config.Fixtures.Dir)
	}
	if dir == "" {
		return nil, ErrFixturesDirRequired
	}
	return m.LoadFixturesFS(ctx, os.DirFS(dir), ".")
}

// LoadFixturesFS imports the Markdown records under dir in fsys.
func (m *Module) LoadFixturesFS(ctx context.Context, fsys fs.FS, dir string) (*FixtureResult, error) {
	return m.container.FixtureImporter().LoadDirectory(ctx, fsys, dir)
}
