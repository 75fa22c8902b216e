package http

import (
	"errors"
	"net/http"
	"strings"

	listingcmd "github.com/goliatone/go-cms-listing/internal/commands/listing"
	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/logging"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

// PublicController renders listing elements for site visitors.
type PublicController struct {
	basePath     string
	elements     listing.Service
	render       *listingcmd.RenderElementHandler
	allowPreview bool
	logger       interfaces.Logger
}

// PublicOption mutates the PublicController configuration.
type PublicOption func(*PublicController)

// NewPublicController constructs a PublicController instance.
func NewPublicController(opts ...PublicOption) *PublicController {
	controller := &PublicController{
		basePath: "/elements",
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(controller)
		}
	}
	return controller
}

// WithPublicBasePath overrides the mount path (defaults to "/elements").
func WithPublicBasePath(path string) PublicOption {
	return func(c *PublicController) {
		if c == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			c.basePath = trimmed
		}
	}
}

// WithPublicElementService wires the element service. The render handler is
// derived from it unless WithRenderHandler is used.
func WithPublicElementService(service listing.Service) PublicOption {
	return func(c *PublicController) {
		if c != nil {
			c.elements = service
		}
	}
}

// WithRenderHandler wires the render command handler.
func WithRenderHandler(handler *listingcmd.RenderElementHandler) PublicOption {
	return func(c *PublicController) {
		if c != nil {
			c.render = handler
		}
	}
}

// WithPreview lets the "preview" query parameter include draft records.
func WithPreview(enabled bool) PublicOption {
	return func(c *PublicController) {
		if c != nil {
			c.allowPreview = enabled
		}
	}
}

// WithPublicLogger sets the logger used for failed renders.
func WithPublicLogger(logger interfaces.Logger) PublicOption {
	return func(c *PublicController) {
		if c != nil && logger != nil {
			c.logger = logger
		}
	}
}

// Register wires the public routes onto mux.
func (c *PublicController) Register(mux *http.ServeMux) error {
	if c == nil {
		return errors.New("public controller is nil")
	}
	if mux == nil {
		return errors.New("http mux is nil")
	}
	if c.render == nil && c.elements != nil {
		c.render = listingcmd.NewRenderElementHandler(c.elements, logging.WithFields(c.logger, map[string]any{"component": "public"}))
	}

	root := joinPath(c.basePath, "{key}")
	mux.HandleFunc("GET "+root, c.serve)
	mux.HandleFunc("GET "+root+"/{action}", c.serve)
	return nil
}

func (c *PublicController) serve(w http.ResponseWriter, r *http.Request) {
	if c.render == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	result := &listingcmd.RenderResult{}
	msg := listingcmd.RenderElementCommand{
		Key:     r.PathValue("key"),
		Action:  r.PathValue("action"),
		Query:   query,
		URL:     r.URL.RequestURI(),
		Preview: c.allowPreview && parseBoolQuery(query.Get("preview"), false),
		Output:  result,
	}
	if err := c.render.Execute(r.Context(), msg); err != nil {
		status, _ := mapError(err)
		logger := logging.WithElementContext(c.logger, "", msg.Key, msg.Action)
		if status >= http.StatusInternalServerError {
			logger.Error("listing render failed", "error", err)
		} else {
			logger.Debug("listing render rejected", "status", status, "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	writeHTML(w, http.StatusOK, result.HTML)
}
