package links

import (
	"context"
	"fmt"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-cms-listing/internal/records"
)

// Resolver builds public URLs for records.
type Resolver interface {
	Resolve(ctx context.Context, record *records.Record) (string, error)
}

// URLKitResolverOptions configures the go-urlkit backed resolver.
type URLKitResolverOptions struct {
	Manager      *urlkit.RouteManager
	DefaultGroup string
	DefaultRoute string
	// TypeRoutes overrides DefaultRoute per record type. Subtypes fall back
	// to the route of their closest registered base.
	TypeRoutes map[string]string
	Catalog    *records.Catalog
	SlugParam  string
	TypeParam  string
	IDParam    string
}

// URLKitResolver resolves record URLs using a go-urlkit RouteManager.
type URLKitResolver struct {
	manager      *urlkit.RouteManager
	defaultGroup string
	defaultRoute string
	typeRoutes   map[string]string
	catalog      *records.Catalog
	slugParam    string
	typeParam    string
	idParam      string

	groupCache map[string]*urlkit.Group
	mu         sync.RWMutex
}

// NewURLKitResolver constructs a resolver backed by go-urlkit.
func NewURLKitResolver(opts URLKitResolverOptions) *URLKitResolver {
	if opts.SlugParam == "" {
		opts.SlugParam = "slug"
	}
	routes := make(map[string]string, len(opts.TypeRoutes))
	for recordType, route := range opts.TypeRoutes {
		if route = strings.TrimSpace(route); route != "" {
			routes[recordType] = route
		}
	}
	return &URLKitResolver{
		manager:      opts.Manager,
		defaultGroup: strings.TrimSpace(opts.DefaultGroup),
		defaultRoute: strings.TrimSpace(opts.DefaultRoute),
		typeRoutes:   routes,
		catalog:      opts.Catalog,
		slugParam:    strings.TrimSpace(opts.SlugParam),
		typeParam:    strings.TrimSpace(opts.TypeParam),
		idParam:      strings.TrimSpace(opts.IDParam),
		groupCache:   make(map[string]*urlkit.Group),
	}
}

// Resolve builds the record URL. Missing configuration yields an empty URL.
func (r *URLKitResolver) Resolve(_ context.Context, record *records.Record) (string, error) {
	if r == nil || r.manager == nil || record == nil || r.defaultGroup == "" {
		return "", nil
	}
	routeName := r.routeFor(record.Type)
	if routeName == "" {
		return "", nil
	}

	group, err := r.groupForPath(r.defaultGroup)
	if err != nil || group == nil {
		return "", err
	}
	builder, err := safeBuilder(group, routeName)
	if err != nil {
		return "", err
	}

	for key, val := range r.collectParams(record) {
		builder.WithParam(key, val)
	}
	return builder.Build()
}

func (r *URLKitResolver) routeFor(recordType string) string {
	if route, ok := r.typeRoutes[recordType]; ok {
		return route
	}
	if r.catalog != nil {
		for current := recordType; current != ""; {
			def, ok := r.catalog.Get(current)
			if !ok {
				break
			}
			if route, ok := r.typeRoutes[def.Name]; ok {
				return route
			}
			current = def.Base
		}
	}
	return r.defaultRoute
}

func (r *URLKitResolver) collectParams(record *records.Record) map[string]any {
	params := make(map[string]any)
	if r.slugParam != "" && record.Slug != "" {
		params[r.slugParam] = record.Slug
	}
	if r.typeParam != "" {
		params[r.typeParam] = strings.ToLower(record.Type)
	}
	if r.idParam != "" {
		params[r.idParam] = record.ID.String()
	}
	return params
}

func (r *URLKitResolver) groupForPath(path string) (*urlkit.Group, error) {
	r.mu.RLock()
	group, ok := r.groupCache[path]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	parts := strings.Split(path, ".")
	current, err := lookupGroup(r.manager, parts[0])
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		current, err = lookupChildGroup(current, part)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.groupCache[path] = current
	r.mu.Unlock()
	return current, nil
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("links: urlkit builder panic: %v", rec)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("links: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("links: child group %q not found", name)
		}
	}()
	group = parent.Group(name)
	return group, err
}

// Nop returns a resolver that never produces links.
func Nop() Resolver {
	return nopResolver{}
}

type nopResolver struct{}

func (nopResolver) Resolve(context.Context, *records.Record) (string, error) {
	return "", nil
}
