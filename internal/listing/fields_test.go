package listing_test

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/runtimeconfig"
	"github.com/goliatone/go-cms-listing/pkg/testsupport"
)

func optionValues(options []listing.FormOption) []string {
	out := make([]string, 0, len(options))
	for _, option := range options {
		out = append(out, option.Value)
	}
	return out
}

func fieldNames(tab *listing.FormTab) []string {
	out := make([]string, 0, len(tab.Fields))
	for _, field := range tab.Fields {
		out = append(out, field.Name)
	}
	return out
}

func TestFieldsSettingsTab(t *testing.T) {
	svc := newService(t, newMemoryGraph(t))
	ctx := context.Background()

	element := mustCreateElement(t, svc, listing.CreateElementInput{Key: "pages"})
	form, err := svc.Fields(ctx, element)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if len(form.Tabs) != 3 || form.Tabs[0].Name != "Settings" || form.Tabs[1].Name != "Templates" || form.Tabs[2].Title != "Advanced settings" {
		t.Fatalf("unexpected tabs: %+v", form.Tabs)
	}

	settings, _ := form.Tab("Settings")
	want := []string{"ListType", "StrictType", "PerPage", "SortDir", "SortBy", "ListingSourceID", "Depth"}
	if got := fieldNames(settings); !slices.Equal(got, want) {
		t.Fatalf("expected settings fields %v, got %v", want, got)
	}

	listType, _ := form.Field("ListType")
	if listType.Label != "List items of type" || !slices.Equal(optionValues(listType.Options), []string{"NewsArticle", "Page", "Topic"}) {
		t.Fatalf("unexpected list type field: %+v", listType)
	}
	sortBy, _ := form.Field("SortBy")
	if !slices.Contains(optionValues(sortBy.Options), "Content") || slices.Contains(optionValues(sortBy.Options), "Author") {
		t.Fatalf("expected Page fields in sort options, got %v", optionValues(sortBy.Options))
	}
	tree, _ := form.Field("ListingSourceID")
	if tree.Kind != listing.FieldTree || tree.RootType != "Page" || tree.Label != "Source of content for listing" {
		t.Fatalf("unexpected source field: %+v", tree)
	}
	depth, _ := form.Field("Depth")
	if !slices.Equal(optionValues(depth.Options), []string{"1", "2", "3", "4", "5"}) {
		t.Fatalf("unexpected depth options: %v", optionValues(depth.Options))
	}

	topics := mustCreateElement(t, svc, listing.CreateElementInput{Key: "topics", ListType: "Topic"})
	form, err = svc.Fields(ctx, topics)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if _, ok := form.Field("ListingSourceID"); ok {
		t.Fatal("did not expect a source tree for a type without parents")
	}
}

func TestFieldsTemplatesTab(t *testing.T) {
	ctx := context.Background()
	graph := newMemoryGraph(t)

	svc := newService(t, graph)
	form, err := svc.Fields(ctx, &listing.Element{})
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	tab, _ := form.Tab("Templates")
	if got := fieldNames(tab); !slices.Equal(got, []string{"ListingTemplate", "ComponentListingTemplate", "TemplateSamplePagination"}) {
		t.Fatalf("unexpected template fields: %v", got)
	}
	sample, _ := form.Field("TemplateSamplePagination")
	if !sample.ReadOnly || sample.Rows != 15 || sample.Value != runtimeconfig.DefaultSamplePagination {
		t.Fatalf("unexpected sample field: %+v", sample)
	}

	disabledCfg := runtimeconfig.DefaultConfig().Templates
	disabledCfg.CMSTemplatesDisabled = true
	disabled := newService(t, graph, listing.WithTemplatesConfig(disabledCfg))
	form, err = disabled.Fields(ctx, &listing.Element{})
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	tab, _ = form.Tab("Templates")
	if len(tab.Fields) != 1 || tab.Fields[0].Kind != listing.FieldLiteral || tab.Fields[0].Content != `<p class="message bad">No templates available.</p>` {
		t.Fatalf("expected no-templates message, got %+v", tab.Fields)
	}

	root := t.TempDir()
	if err := testsupport.WriteFiles(root, map[string]string{
		filepath.Join("templates", "listing", "cards.html"):  "{{ Title }}",
		filepath.Join("templates", "listing", "simple.html"): "{{ Title }}",
	}); err != nil {
		t.Fatalf("write templates: %v", err)
	}
	withFiles := disabledCfg
	withFiles.FileSources = []string{root}
	files := newService(t, graph, listing.WithTemplatesConfig(withFiles))
	form, err = files.Fields(ctx, &listing.Element{})
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	tab, _ = form.Tab("Templates")
	if got := fieldNames(tab); !slices.Equal(got, []string{"ListingTemplateFile", "ComponentListingTemplateFile"}) {
		t.Fatalf("expected only file selectors, got %v", got)
	}
	selector, _ := form.Field("ListingTemplateFile")
	if selector.EmptyString != "Select..." || !slices.Equal(optionValues(selector.Options), []string{"listing/cards", "listing/simple"}) {
		t.Fatalf("unexpected file selector: %+v", selector)
	}
}

func TestFieldsAdvancedTab(t *testing.T) {
	svc := newService(t, newMemoryGraph(t))
	ctx := context.Background()

	element := mustCreateElement(t, svc, listing.CreateElementInput{Key: "news", ListType: "NewsArticle"})
	form, err := svc.Fields(ctx, element)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	relation, ok := form.Field("ComponentFilterName")
	if !ok || len(relation.Options) != 1 || relation.Options[0].Label != "Topics (Topic)" {
		t.Fatalf("unexpected relation field: %+v", relation)
	}
	if relation.Description != "Will cause this page to list items based on the last URL part. (i.e. /elements/news/{$componentFieldName})" {
		t.Fatalf("unexpected relation description: %q", relation.Description)
	}
	column, _ := form.Field("ComponentFilterColumn")
	if column.EmptyString != "(Must select a relation and Save)" || len(column.Options) != 0 {
		t.Fatalf("expected empty column selector, got %+v", column)
	}
	if _, ok := form.Field("ComponentFilterWhere"); ok {
		t.Fatal("did not expect constraints before a relation is chosen")
	}
	customSort, _ := form.Field("CustomSort")
	if customSort.Description != "If set, add this as a URL param to sort the list. Will also look for {name}_dir as the sort direction" {
		t.Fatalf("unexpected custom sort description: %q", customSort.Description)
	}

	updated, err := svc.Update(ctx, listing.UpdateElementInput{ID: element.ID, ComponentFilterName: stringPtr("Topics")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	form, err = svc.Fields(ctx, updated)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	column, _ = form.Field("ComponentFilterColumn")
	if column.EmptyString != "Select..." || !slices.Contains(optionValues(column.Options), "Code") {
		t.Fatalf("expected target columns, got %+v", column)
	}
	where, ok := form.Field("ComponentFilterWhere")
	if !ok || where.Kind != listing.FieldKeyValue || where.Description != "Filter 'Topics' with these properties." {
		t.Fatalf("unexpected constraints field: %+v", where)
	}

	form, err = svc.Fields(ctx, &listing.Element{})
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if _, ok := form.Field("ComponentFilterName"); ok {
		t.Fatal("did not expect relation fields without a list type")
	}
}
