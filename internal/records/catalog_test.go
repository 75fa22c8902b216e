package records_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/goliatone/go-cms-listing/internal/records"
)

func newSiteCatalog(t *testing.T) *records.Catalog {
	t.Helper()
	catalog, err := records.NewCatalog(
		records.TypeDefinition{Name: "Page", ParentType: "Page", Fields: []string{"Content"}},
		records.TypeDefinition{
			Name:   "NewsArticle",
			Base:   "Page",
			Fields: []string{"Author", "PublishDate"},
			ManyMany: map[string]records.RelationDefinition{
				"Topics": {Target: "Topic"},
			},
		},
		records.TypeDefinition{Name: "Topic", PluralName: "Topics", Fields: []string{"Code"}},
	)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return catalog
}

func TestCatalogInheritance(t *testing.T) {
	catalog := newSiteCatalog(t)

	if got := catalog.BaseType("NewsArticle"); got != "Page" {
		t.Fatalf("expected base type Page, got %q", got)
	}
	if got := catalog.ParentType("NewsArticle"); got != "Page" {
		t.Fatalf("expected inherited parent type Page, got %q", got)
	}
	if got := catalog.Descendants("Page"); !slices.Equal(got, []string{"NewsArticle", "Page"}) {
		t.Fatalf("unexpected descendants: %v", got)
	}
	if !catalog.IsA("NewsArticle", "Page") || catalog.IsA("Page", "NewsArticle") {
		t.Fatal("unexpected IsA result")
	}
	if _, ok := catalog.Relation("NewsArticle", "Topics"); !ok {
		t.Fatal("expected Topics relation on NewsArticle")
	}
	if _, ok := catalog.Relation("Page", "Topics"); ok {
		t.Fatal("did not expect Topics relation on Page")
	}
}

func TestCatalogSelectableFields(t *testing.T) {
	catalog := newSiteCatalog(t)

	fields := catalog.SelectableFields("NewsArticle")
	for _, want := range []string{"Author", "Content", "ParentID", "Title", "PublishDate"} {
		if !slices.Contains(fields, want) {
			t.Fatalf("expected %s in %v", want, fields)
		}
	}
	if !slices.IsSorted(fields) {
		t.Fatalf("expected sorted fields, got %v", fields)
	}
	if catalog.HasField("Topic", "ParentID") {
		t.Fatal("flat type should not expose ParentID")
	}
	if catalog.SelectableFields("Missing") != nil {
		t.Fatal("expected nil fields for unknown type")
	}
}

func TestCatalogRegisterValidation(t *testing.T) {
	catalog := newSiteCatalog(t)

	if err := catalog.Register(records.TypeDefinition{Name: "Page"}); !errors.Is(err, records.ErrTypeExists) {
		t.Fatalf("expected ErrTypeExists, got %v", err)
	}
	if err := catalog.Register(records.TypeDefinition{Name: "Event", Base: "Calendar"}); !errors.Is(err, records.ErrTypeBaseUnknown) {
		t.Fatalf("expected ErrTypeBaseUnknown, got %v", err)
	}
	if err := catalog.Register(records.TypeDefinition{Name: "Event", Fields: []string{"Title"}}); !errors.Is(err, records.ErrTypeFieldReserved) {
		t.Fatalf("expected ErrTypeFieldReserved, got %v", err)
	}
	if err := catalog.Register(records.TypeDefinition{Name: " "}); !errors.Is(err, records.ErrTypeNameRequired) {
		t.Fatalf("expected ErrTypeNameRequired, got %v", err)
	}
}

func TestCatalogPluralName(t *testing.T) {
	catalog := newSiteCatalog(t)

	cases := map[string]string{
		"Topic":       "Topics",
		"Page":        "Pages",
		"NewsArticle": "NewsArticles",
		"Category":    "Categories",
		"Address":     "Addresses",
	}
	for name, want := range cases {
		if got := catalog.PluralName(name); got != want {
			t.Fatalf("PluralName(%q) = %q, want %q", name, got, want)
		}
	}
}
