package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	listingcmd "github.com/goliatone/go-cms-listing/internal/commands/listing"
	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/logging"
	"github.com/goliatone/go-cms-listing/internal/permissions"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

// AdminAPI registers admin endpoints for listing elements.
type AdminAPI struct {
	basePath string
	elements listing.Service
	commands *listingcmd.HandlerSet
	logger   interfaces.Logger
}

// AdminOption mutates the AdminAPI configuration.
type AdminOption func(*AdminAPI)

// NewAdminAPI constructs an AdminAPI instance.
func NewAdminAPI(opts ...AdminOption) *AdminAPI {
	api := &AdminAPI{
		basePath: "/admin/api/listing",
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/admin/api/listing").
func WithBasePath(path string) AdminOption {
	return func(api *AdminAPI) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithElementService wires the listing element service.
func WithElementService(service listing.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.elements = service
		}
	}
}

// WithCommands wires the command handlers used for writes. When omitted the
// handlers are built from the element service.
func WithCommands(set *listingcmd.HandlerSet) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.commands = set
		}
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(logger interfaces.Logger) AdminOption {
	return func(api *AdminAPI) {
		if api != nil && logger != nil {
			api.logger = logger
		}
	}
}

// Register wires the admin routes onto mux.
func (api *AdminAPI) Register(mux *http.ServeMux) error {
	if api == nil {
		return errors.New("admin api is nil")
	}
	if mux == nil {
		return errors.New("http mux is nil")
	}
	if api.elements != nil && api.commands == nil {
		set, err := listingcmd.RegisterListingCommands(nil, api.elements, nil)
		if err != nil {
			return fmt.Errorf("build listing commands: %w", err)
		}
		api.commands = set
	}
	api.registerElementRoutes(mux)
	return nil
}

func (api *AdminAPI) registerElementRoutes(mux *http.ServeMux) {
	root := joinPath(api.basePath, "elements")
	item := root + "/{id}"

	mux.HandleFunc("GET "+root, api.listElements)
	mux.HandleFunc("POST "+root, api.createElement)
	mux.HandleFunc("GET "+root+"/schema", api.configurationSchema)
	mux.HandleFunc("GET "+item, api.getElement)
	mux.HandleFunc("PUT "+item, api.updateElement)
	mux.HandleFunc("DELETE "+item, api.deleteElement)
	mux.HandleFunc("GET "+item+"/fields", api.elementFields)
	mux.HandleFunc("GET "+item+"/schema", api.elementSchema)
	mux.HandleFunc("GET "+joinPath(api.basePath, "template-files"), api.templateFiles)
}

func (api *AdminAPI) available(w http.ResponseWriter) bool {
	if api.elements == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "listing service not configured"})
		return false
	}
	return true
}

func (api *AdminAPI) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		api.logger.Error("admin request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, payload)
}

func (api *AdminAPI) element(w http.ResponseWriter, r *http.Request) (*listing.Element, bool) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_id", Message: err.Error()})
		return nil, false
	}
	element, err := api.elements.Get(r.Context(), id)
	if err != nil {
		api.fail(w, r, err)
		return nil, false
	}
	return element, true
}

func (api *AdminAPI) listElements(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	if !requirePermission(w, r, permissions.ElementsRead) {
		return
	}
	elements, err := api.elements.List(r.Context())
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if elements == nil {
		elements = []*listing.Element{}
	}
	writeJSON(w, http.StatusOK, elements)
}

func (api *AdminAPI) createElement(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	if !requirePermission(w, r, permissions.ElementsCreate) {
		return
	}
	var msg listingcmd.UpsertElementCommand
	if err := decodeJSON(r, &msg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Message: err.Error()})
		return
	}
	if msg.ID != uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "id is assigned by the server"})
		return
	}
	if key := strings.TrimSpace(msg.Key); key != "" {
		if _, err := api.elements.GetByKey(r.Context(), key); err == nil {
			api.fail(w, r, fmt.Errorf("%w: %s", listing.ErrElementKeyExists, key))
			return
		}
	}

	result := &listingcmd.UpsertResult{}
	msg.Output = result
	if err := api.commands.Upsert.Execute(r.Context(), msg); err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Element)
}

func (api *AdminAPI) getElement(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	if !requirePermission(w, r, permissions.ElementsRead) {
		return
	}
	element, ok := api.element(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, element)
}

func (api *AdminAPI) updateElement(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	if !requirePermission(w, r, permissions.ElementsUpdate) {
		return
	}
	element, ok := api.element(w, r)
	if !ok {
		return
	}
	var msg listingcmd.UpsertElementCommand
	if err := decodeJSON(r, &msg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Message: err.Error()})
		return
	}
	msg.ID = element.ID
	if strings.TrimSpace(msg.Key) == "" {
		msg.Key = element.Key
	}

	result := &listingcmd.UpsertResult{}
	msg.Output = result
	if err := api.commands.Upsert.Execute(r.Context(), msg); err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Element)
}

func (api *AdminAPI) deleteElement(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	if !requirePermission(w, r, permissions.ElementsDelete) {
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_id", Message: err.Error()})
		return
	}
	if err := api.commands.Delete.Execute(r.Context(), listingcmd.DeleteElementCommand{ID: id}); err != nil {
		api.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) elementFields(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	if !requirePermission(w, r, permissions.ElementsRead) {
		return
	}
	element, ok := api.element(w, r)
	if !ok {
		return
	}
	form, err := api.elements.Fields(r.Context(), element)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (api *AdminAPI) elementSchema(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	if !requirePermission(w, r, permissions.ElementsRead) {
		return
	}
	element, ok := api.element(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, api.elements.BlockSchema(r.Context(), element))
}

func (api *AdminAPI) configurationSchema(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	if !requirePermission(w, r, permissions.ElementsRead) {
		return
	}
	writeJSON(w, http.StatusOK, api.elements.ConfigurationSchema())
}

func (api *AdminAPI) templateFiles(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	if !requirePermission(w, r, permissions.ElementsRead) {
		return
	}
	files, err := api.elements.TemplateFiles()
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if files == nil {
		files = map[string]string{}
	}
	writeJSON(w, http.StatusOK, files)
}
