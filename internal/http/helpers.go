package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/permissions"
	"github.com/goliatone/go-cms-listing/internal/records"
	schemavalidation "github.com/goliatone/go-cms-listing/internal/validation"
)

type errorResponse struct {
	Error   string                             `json:"error"`
	Message string                             `json:"message,omitempty"`
	Fields  map[string]string                  `json:"fields,omitempty"`
	Issues  []schemavalidation.ValidationIssue `json:"issues,omitempty"`
}

var badRequestErrors = []error{
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

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	var elementNotFound *listing.NotFoundError
	var recordNotFound *records.NotFoundError
	if errors.As(err, &elementNotFound) ||
		errors.As(err, &recordNotFound) ||
		errors.Is(err, listing.ErrComponentNotFound) ||
		goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: err.Error(),
		}
	}

	if errors.Is(err, permissions.ErrPermissionDenied) {
		return http.StatusForbidden, errorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		}
	}

	if errors.Is(err, listing.ErrElementKeyExists) || goerrors.IsCategory(err, goerrors.CategoryConflict) {
		return http.StatusConflict, errorResponse{
			Error:   "conflict",
			Message: err.Error(),
		}
	}

	if errors.Is(err, schemavalidation.ErrSchemaValidation) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Issues:  schemavalidation.Issues(err),
		}
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for name, fieldErr := range fieldErrs {
			if fieldErr != nil {
				fields[name] = fieldErr.Error()
			}
		}
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: "invalid payload",
			Fields:  fields,
		}
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, errorResponse{
				Error:   "bad_request",
				Message: err.Error(),
			}
		}
	}
	if goerrors.IsCategory(err, goerrors.CategoryValidation) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func parseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("uuid required")
	}
	return uuid.Parse(trimmed)
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func requirePermission(w http.ResponseWriter, r *http.Request, permission string) bool {
	if err := permissions.Require(r.Context(), permission); err != nil {
		writeError(w, err)
		return false
	}
	return true
}
