package listing

import (
	"github.com/goliatone/go-cms-listing/internal/validation"
)

const maxNameLength = 64

// ConfigurationSchema returns the JSON schema of an element's configuration.
// Catalog dependent rules (registered types, selectable fields) are checked
// by the service.
func ConfigurationSchema(maxDepth int) map[string]any {
	name := func() map[string]any {
		return map[string]any{"type": "string", "maxLength": maxNameLength}
	}
	return map[string]any{
		"$schema":  "https://json-schema.org/draft/2020-12/schema",
		"title":    "Listing element",
		"type":     "object",
		"required": []any{"key", "list_type", "per_page", "sort_dir"},
		"properties": map[string]any{
			"key": map[string]any{
				"type":      "string",
				"minLength": 1,
				"maxLength": maxNameLength,
				"pattern":   "^[a-z0-9]+(?:[-_][a-z0-9]+)*$",
			},
			"title":    map[string]any{"type": "string", "maxLength": 255},
			"per_page": map[string]any{"type": "integer", "minimum": 0},
			"sort_by":  name(),
			"custom_sort": map[string]any{
				"type":      "string",
				"maxLength": maxNameLength,
				"pattern":   "^[A-Za-z0-9_]*$",
			},
			"sort_dir":  map[string]any{"enum": []any{SortAscending, SortDescending}},
			"list_type": map[string]any{"type": "string", "minLength": 1, "maxLength": maxNameLength},
			"depth": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": maxDepth,
			},
			"strict_type":             map[string]any{"type": "boolean"},
			"allow_drilldown":         map[string]any{"type": "boolean"},
			"component_filter_name":   name(),
			"component_filter_column": name(),
			"component_filter_where": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"listing_template":                map[string]any{"type": "string"},
			"component_listing_template":      map[string]any{"type": "string"},
			"listing_template_file":           map[string]any{"type": "string", "maxLength": 255},
			"component_listing_template_file": map[string]any{"type": "string", "maxLength": 255},
		},
	}
}

// NewConfigurationValidator compiles ConfigurationSchema.
func NewConfigurationValidator(maxDepth int) (*validation.Validator, error) {
	return validation.Compile(ConfigurationSchema(maxDepth))
}
