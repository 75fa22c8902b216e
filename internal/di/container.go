package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"

	listingcmd "github.com/goliatone/go-cms-listing/internal/commands/listing"
	"github.com/goliatone/go-cms-listing/internal/fixtures"
	"github.com/goliatone/go-cms-listing/internal/links"
	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/logging"
	"github.com/goliatone/go-cms-listing/internal/logging/console"
	"github.com/goliatone/go-cms-listing/internal/logging/gologger"
	"github.com/goliatone/go-cms-listing/internal/markdown"
	"github.com/goliatone/go-cms-listing/internal/records"
	"github.com/goliatone/go-cms-listing/internal/runtimeconfig"
	"github.com/goliatone/go-cms-listing/internal/templates"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

// ErrBunDBRequired is returned when bun storage is configured without a database.
var ErrBunDBRequired = errors.New("di: bun storage requires a *bun.DB")

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	loggerProvider interfaces.LoggerProvider

	types   []records.TypeDefinition
	catalog *records.Catalog

	recordRepo   records.RecordRepository
	relationRepo records.RelationRepository
	elementRepo  listing.ElementRepository

	template     interfaces.TemplateRenderer
	markdown     *markdown.GoldmarkParser
	routeManager *urlkit.RouteManager
	linkResolver links.Resolver

	listingOptions []listing.ServiceOption
	registry       listingcmd.CommandRegistry

	recordSvc  records.Service
	listingSvc listing.Service
	commands   *listingcmd.HandlerSet
	importer   *fixtures.Importer
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB sets the database used by the bun storage provider.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the cache used by bun repositories.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithTypes registers record types on the catalog built by the container.
func WithTypes(defs ...records.TypeDefinition) Option {
	return func(c *Container) {
		c.types = append(c.types, defs...)
	}
}

// WithCatalog supplies a prepared catalog. Types passed with WithTypes are
// registered on it.
func WithCatalog(catalog *records.Catalog) Option {
	return func(c *Container) {
		c.catalog = catalog
	}
}

// WithRecordService replaces the bundled record store with a host graph.
func WithRecordService(svc records.Service) Option {
	return func(c *Container) {
		c.recordSvc = svc
	}
}

// WithTemplate overrides the pongo2 renderer.
func WithTemplate(tr interfaces.TemplateRenderer) Option {
	return func(c *Container) {
		c.template = tr
	}
}

// WithLinkResolver overrides the resolver built from the navigation config.
func WithLinkResolver(resolver links.Resolver) Option {
	return func(c *Container) {
		c.linkResolver = resolver
	}
}

// WithListingOptions appends options applied to the listing service.
func WithListingOptions(opts ...listing.ServiceOption) Option {
	return func(c *Container) {
		c.listingOptions = append(c.listingOptions, opts...)
	}
}

// WithCommandRegistry registers the element command handlers with reg.
func WithCommandRegistry(reg listingcmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// NewContainer validates cfg and builds the services.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func() error{
		c.configureLogging,
		c.configureCatalog,
		c.configureCacheDefaults,
		c.configureRepositories,
		c.configureNavigation,
		c.configureTemplates,
		c.configureServices,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		level := console.ParseLevel(logCfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configureCatalog() error {
	if c.recordSvc != nil {
		if c.catalog == nil {
			c.catalog = c.recordSvc.Catalog()
		}
		if len(c.types) > 0 {
			return c.registerTypes()
		}
		return nil
	}
	if c.catalog == nil {
		catalog, err := records.NewCatalog()
		if err != nil {
			return err
		}
		c.catalog = catalog
	}
	return c.registerTypes()
}

func (c *Container) registerTypes() error {
	for _, def := range c.types {
		if err := c.catalog.Register(def); err != nil {
			return fmt.Errorf("register record type %q: %w", def.Name, err)
		}
	}
	return nil
}

func (c *Container) usesBun() bool {
	return strings.EqualFold(strings.TrimSpace(c.Config.Storage.Provider), "bun")
}

func (c *Container) configureCacheDefaults() error {
	if !c.usesBun() || !c.Config.Cache.Enabled {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		cfg.TTL = c.cacheTTL
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("build repository cache: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureRepositories() error {
	if !c.usesBun() {
		c.recordRepo = records.NewMemoryRecordRepository()
		c.relationRepo = records.NewMemoryRelationRepository()
		c.elementRepo = listing.NewMemoryElementRepository()
		return nil
	}
	if c.bunDB == nil {
		return ErrBunDBRequired
	}
	if c.cacheService != nil {
		c.recordRepo = records.NewBunRecordRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.elementRepo = listing.NewBunElementRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	} else {
		c.recordRepo = records.NewBunRecordRepository(c.bunDB)
		c.elementRepo = listing.NewBunElementRepository(c.bunDB)
	}
	c.relationRepo = records.NewBunRelationRepository(c.bunDB)
	return nil
}

func (c *Container) configureNavigation() error {
	if c.linkResolver != nil {
		return nil
	}
	navCfg := c.Config.Navigation
	if navCfg.RouteConfig == nil {
		c.linkResolver = links.Nop()
		return nil
	}

	manager := urlkit.NewRouteManager(navCfg.RouteConfig)
	c.routeManager = manager
	c.linkResolver = links.NewURLKitResolver(links.URLKitResolverOptions{
		Manager:      manager,
		DefaultGroup: strings.TrimSpace(navCfg.DefaultGroup),
		DefaultRoute: strings.TrimSpace(navCfg.RecordRoute),
		TypeRoutes:   navCfg.TypeRoutes,
		Catalog:      c.catalog,
		SlugParam:    navCfg.SlugParam,
		TypeParam:    navCfg.TypeParam,
	})
	return nil
}

func (c *Container) configureTemplates() error {
	mdCfg := c.Config.Markdown
	c.markdown = markdown.NewGoldmarkParser(interfaces.ParseOptions{
		Extensions: mdCfg.Extensions,
		SafeMode:   mdCfg.SafeMode,
		HardWraps:  mdCfg.HardWraps,
	})
	if c.template != nil {
		return nil
	}
	renderer, err := templates.NewRenderer(
		templates.WithSources(c.Config.Templates.FileSources...),
		templates.WithExtension(c.Config.Templates.Extension),
		templates.WithMarkdown(c.markdown),
		templates.WithLogger(logging.TemplatesLogger(c.loggerProvider)),
	)
	if err != nil {
		return fmt.Errorf("build template renderer: %w", err)
	}
	c.template = renderer
	return nil
}

func (c *Container) configureServices() error {
	if c.recordSvc == nil {
		c.recordSvc = records.NewService(c.catalog, c.recordRepo, c.relationRepo,
			records.WithLogger(logging.RecordsLogger(c.loggerProvider)),
		)
	}

	opts := []listing.ServiceOption{
		listing.WithLogger(logging.ListingLogger(c.loggerProvider)),
		listing.WithRenderer(c.template),
		listing.WithLinkResolver(c.linkResolver),
		listing.WithListingConfig(c.Config.Listing),
		listing.WithTemplatesConfig(c.Config.Templates),
		listing.WithFeatures(c.Config.Features),
	}
	svc, err := listing.NewService(c.elementRepo, c.recordSvc, append(opts, c.listingOptions...)...)
	if err != nil {
		return fmt.Errorf("build listing service: %w", err)
	}
	c.listingSvc = svc

	set, err := listingcmd.RegisterListingCommands(c.registry, svc, c.loggerProvider)
	if err != nil {
		return fmt.Errorf("register listing commands: %w", err)
	}
	c.commands = set

	c.importer = fixtures.NewImporter(fixtures.Config{
		Records: c.recordSvc,
		Logger:  logging.FixturesLogger(c.loggerProvider),
		Pattern: c.Config.Fixtures.Pattern,
		Shallow: !c.Config.Fixtures.Recursive,
	})
	return nil
}

// Models lists the bun models owned by the bundled stores.
func Models() []any {
	return append(records.Models(), listing.Models()...)
}

// CreateSchema creates the tables of the bundled stores when bun storage is
// configured. It is a no-op for memory storage.
func (c *Container) CreateSchema(ctx context.Context) error {
	if !c.usesBun() || c.bunDB == nil {
		return nil
	}
	for _, model := range Models() {
		if _, err := c.bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", model, err)
		}
	}
	return nil
}

// LoggerProvider exposes the configured logger provider. Nil when logging is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Catalog exposes the record type catalog.
func (c *Container) Catalog() *records.Catalog {
	return c.catalog
}

// TemplateRenderer exposes the configured template renderer.
func (c *Container) TemplateRenderer() interfaces.TemplateRenderer {
	return c.template
}

// MarkdownParser exposes the goldmark parser backing the markdown filter.
func (c *Container) MarkdownParser() *markdown.GoldmarkParser {
	return c.markdown
}

// RouteManager exposes the go-urlkit manager. Nil without a route config.
func (c *Container) RouteManager() *urlkit.RouteManager {
	return c.routeManager
}

// RecordService returns the record graph service.
func (c *Container) RecordService() records.Service {
	return c.recordSvc
}

// ListingService returns the element service.
func (c *Container) ListingService() listing.Service {
	return c.listingSvc
}

// Commands returns the element command handlers.
func (c *Container) Commands() *listingcmd.HandlerSet {
	return c.commands
}

// FixtureImporter returns the Markdown fixture importer.
func (c *Container) FixtureImporter() *fixtures.Importer {
	return c.importer
}
