package templates

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-cms-listing/internal/logging"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

var (
	ErrTemplateNameRequired = errors.New("templates: template name required")
	ErrNoTemplateSources    = errors.New("templates: no template sources configured")
	ErrGlobalContextInvalid = errors.New("templates: global context must be a map")
	ErrFilterNameRequired   = errors.New("templates: filter name required")
)

// MarkdownRenderer converts Markdown to HTML for the markdown filter.
type MarkdownRenderer interface {
	RenderString(markdown string) (string, error)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSources sets the directories holding a templates/ folder.
func WithSources(sources ...string) Option {
	return func(r *Renderer) {
		r.sources = append(r.sources, sources...)
	}
}

// WithExtension sets the extension appended to template keys without one.
func WithExtension(ext string) Option {
	return func(r *Renderer) {
		r.ext = normalizeExt(ext)
	}
}

// WithMarkdown registers the markdown filter backed by renderer.
func WithMarkdown(renderer MarkdownRenderer) Option {
	return func(r *Renderer) {
		r.markdown = renderer
	}
}

// WithLogger wires the renderer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer implements interfaces.TemplateRenderer on top of pongo2.
type Renderer struct {
	sources  []string
	ext      string
	markdown MarkdownRenderer
	logger   interfaces.Logger

	mu      sync.RWMutex
	set     *pongo2.TemplateSet
	globals pongo2.Context
	filters map[string]struct{}
}

var _ interfaces.TemplateRenderer = (*Renderer)(nil)

// NewRenderer builds a renderer. File templates are only available when at
// least one source directory exists.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		ext:     ".html",
		logger:  logging.NoOp(),
		globals: pongo2.Context{},
		filters: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(r)
	}

	loader := newSourcesLoader(TemplateRoots(r.sources))
	if len(loader.roots) > 0 {
		r.set = pongo2.NewSet("listing", loader)
	} else if len(r.sources) > 0 {
		r.logger.Warn("templates.sources.missing", "sources", r.sources)
	}

	if r.markdown != nil {
		if err := r.RegisterFilter("markdown", r.markdownFilter); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Render renders the template stored under name in the configured sources.
func (r *Renderer) Render(name string, data any, out ...io.Writer) (string, error) {
	return r.RenderTemplate(name, data, out...)
}

// RenderTemplate renders a file template. Keys without an extension get the
// configured one.
func (r *Renderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrTemplateNameRequired
	}
	if r.set == nil {
		return "", ErrNoTemplateSources
	}
	if !strings.HasSuffix(name, r.ext) {
		name += r.ext
	}

	tpl, err := r.set.FromCache(name)
	if err != nil {
		return "", fmt.Errorf("templates: load %s: %w", name, err)
	}
	return r.execute(tpl, data, out)
}

// RenderString compiles and renders an editor supplied template.
func (r *Renderer) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	var (
		tpl *pongo2.Template
		err error
	)
	if r.set != nil {
		tpl, err = r.set.FromString(templateContent)
	} else {
		tpl, err = pongo2.FromString(templateContent)
	}
	if err != nil {
		return "", fmt.Errorf("templates: compile: %w", err)
	}
	return r.execute(tpl, data, out)
}

// RegisterFilter exposes fn to templates. pongo2 filters are process wide,
// so an existing filter with the same name is replaced.
func (r *Renderer) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return ErrFilterNameRequired
	}
	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		result, err := fn(in.Interface(), param.Interface())
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		if safe, ok := result.(SafeHTML); ok {
			return pongo2.AsSafeValue(string(safe)), nil
		}
		return pongo2.AsValue(result), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if pongo2.FilterExists(name) {
		err = pongo2.ReplaceFilter(name, filter)
	} else {
		err = pongo2.RegisterFilter(name, filter)
	}
	if err != nil {
		return fmt.Errorf("templates: register filter %s: %w", name, err)
	}
	r.filters[name] = struct{}{}
	return nil
}

// GlobalContext merges data into the variables every render receives.
func (r *Renderer) GlobalContext(data any) error {
	values, ok := toContext(data)
	if !ok {
		return ErrGlobalContextInvalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	maps.Copy(r.globals, values)
	return nil
}

// SafeHTML marks filter output that must not be escaped.
type SafeHTML string

func (r *Renderer) markdownFilter(input any, _ any) (any, error) {
	source := fmt.Sprint(input)
	if input == nil {
		source = ""
	}
	html, err := r.markdown.RenderString(source)
	if err != nil {
		return nil, err
	}
	return SafeHTML(html), nil
}

func (r *Renderer) execute(tpl *pongo2.Template, data any, out []io.Writer) (string, error) {
	ctx := r.context(data)

	var buf strings.Builder
	if err := tpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("templates: execute: %w", err)
	}
	rendered := buf.String()
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (r *Renderer) context(data any) pongo2.Context {
	r.mu.RLock()
	ctx := make(pongo2.Context, len(r.globals)+4)
	maps.Copy(ctx, r.globals)
	r.mu.RUnlock()

	if values, ok := toContext(data); ok {
		maps.Copy(ctx, values)
	} else if data != nil {
		ctx["Data"] = data
	}
	return ctx
}

func toContext(data any) (pongo2.Context, bool) {
	switch values := data.(type) {
	case pongo2.Context:
		return values, true
	case map[string]any:
		return pongo2.Context(values), true
	case nil:
		return pongo2.Context{}, true
	default:
		return nil, false
	}
}
