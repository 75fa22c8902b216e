package validation

import (
	"errors"
	"strings"
	"testing"
)

var sampleSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"per_page": map[string]any{"type": "integer", "minimum": 0},
		"sort_dir": map[string]any{"enum": []any{"Ascending", "Descending"}},
	},
	"additionalProperties": false,
}

func TestValidatorAcceptsStructPayload(t *testing.T) {
	validator, err := Compile(sampleSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	payload := struct {
		PerPage int    `json:"per_page"`
		SortDir string `json:"sort_dir"`
	}{PerPage: 10, SortDir: "Ascending"}

	if err := validator.Validate(payload); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidatorReportsIssues(t *testing.T) {
	validator, err := Compile(sampleSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	err = validator.Validate(map[string]any{"per_page": -1, "sort_dir": "Sideways", "extra": true})
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
	issues := Issues(err)
	if len(issues) < 2 {
		t.Fatalf("expected multiple issues, got %#v", issues)
	}
	var sawPerPage bool
	for _, issue := range issues {
		if strings.Contains(issue.Location, "per_page") {
			sawPerPage = true
		}
	}
	if !sawPerPage {
		t.Fatalf("expected per_page issue, got %#v", issues)
	}
	if !strings.HasPrefix(err.Error(), "#") {
		t.Fatalf("expected location prefixed message, got %q", err.Error())
	}
}

func TestCompileRejectsBrokenSchema(t *testing.T) {
	if _, err := Compile(map[string]any{"type": 42}); !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
	if _, err := Compile(nil); !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid for empty schema, got %v", err)
	}
}
