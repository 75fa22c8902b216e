package listing_test

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/runtimeconfig"
	"github.com/goliatone/go-cms-listing/internal/templates"
	"github.com/goliatone/go-cms-listing/pkg/testsupport"
)

func newRenderer(t *testing.T, sources ...string) *templates.Renderer {
	t.Helper()
	renderer, err := templates.NewRenderer(templates.WithSources(sources...))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return renderer
}

func TestRenderDefaultTemplate(t *testing.T) {
	graph := newMemoryGraph(t)
	s := newSite(t, graph)
	svc := newService(t, graph, listing.WithRenderer(newRenderer(t)))
	ctx := context.Background()

	element := mustCreateElement(t, svc, listing.CreateElementInput{Key: "news", ListType: "NewsArticle", ListingSourceID: &s.news.ID})
	out, err := svc.Render(ctx, element, listing.Request{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Count(out, "<p>") != 2 || !strings.Contains(out, "<p>Alpha</p>") || !strings.Contains(out, "<p>Bravo</p>") {
		t.Fatalf("unexpected output: %q", out)
	}

	unsaved := *element
	unsaved.ID = [16]byte{}
	out, err = svc.Render(ctx, &unsaved, listing.Request{})
	if err != nil || out != "" {
		t.Fatalf("expected unsaved element to render nothing, got %q %v", out, err)
	}
}

func TestRenderPaginationAndContext(t *testing.T) {
	graph := newMemoryGraph(t)
	s := newSite(t, graph)
	svc := newService(t, graph, listing.WithRenderer(newRenderer(t)))
	ctx := context.Background()

	tpl := `{{ Title }}|{% for item in Items %}{{ item.Title }}:{{ item.Fields.Author }};{% endfor %}|{{ Sort }} {{ Dir }}|{{ Source.Title }}|{% if Pagination.NotLastPage %}{{ Pagination.NextLink }}{% endif %}`
	element := mustCreateElement(t, svc, listing.CreateElementInput{
		Key:             "news",
		Title:           "Latest",
		ListType:        "NewsArticle",
		ListingSourceID: &s.news.ID,
		Depth:           2,
		PerPage:         intPtr(2),
		ListingTemplate: &tpl,
	})
	out, err := svc.Render(ctx, element, listing.Request{URL: "/blog"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "Latest|Alpha:zed;Bravo:amy;|Title ASC|News|/blog?pagenews=2"
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestRenderComponentListing(t *testing.T) {
	graph := newMemoryGraph(t)
	newSite(t, graph)
	svc := newService(t, graph, listing.WithRenderer(newRenderer(t)))
	ctx := context.Background()

	element := mustCreateElement(t, svc, listing.CreateElementInput{
		Key:                      "topics",
		ListType:                 "NewsArticle",
		ComponentFilterName:      "Topics",
		ComponentFilterColumn:    "Code",
		ListingTemplate:          stringPtr(`{% for item in Items %}[{{ item.Title }}]{% endfor %}`),
		ComponentListingTemplate: `{% for item in Items %}<{{ item.Fields.Code }}>{% endfor %}`,
	})

	out, err := svc.Render(ctx, element, listing.Request{})
	if err != nil {
		t.Fatalf("render component listing: %v", err)
	}
	if out != "<GO><RS><WEB>" {
		t.Fatalf("unexpected component output: %q", out)
	}

	out, err = svc.Render(ctx, element, listing.Request{Action: "GO", Query: url.Values{}})
	if err != nil {
		t.Fatalf("render filtered listing: %v", err)
	}
	if out != "[Alpha][Bravo]" {
		t.Fatalf("unexpected filtered output: %q", out)
	}

	if _, err := svc.Render(ctx, element, listing.Request{Action: "NOPE"}); !errors.Is(err, listing.ErrComponentNotFound) {
		t.Fatalf("expected ErrComponentNotFound, got %v", err)
	}
}

func TestRenderTemplateFileAndFallbacks(t *testing.T) {
	graph := newMemoryGraph(t)
	s := newSite(t, graph)
	ctx := context.Background()

	root := t.TempDir()
	if err := testsupport.WriteFiles(root, map[string]string{
		filepath.Join("templates", "listing", "cards.html"): `{% for item in Items %}<li>{{ item.Title }}</li>{% endfor %}`,
	}); err != nil {
		t.Fatalf("write templates: %v", err)
	}
	templatesCfg := runtimeconfig.DefaultConfig().Templates
	templatesCfg.FileSources = []string{root}

	svc := newService(t, graph,
		listing.WithRenderer(newRenderer(t, root)),
		listing.WithTemplatesConfig(templatesCfg),
	)

	fromFile := mustCreateElement(t, svc, listing.CreateElementInput{
		Key:                 "cards",
		ListType:            "NewsArticle",
		ListingSourceID:     &s.news.ID,
		ListingTemplate:     stringPtr(""),
		ListingTemplateFile: "listing/cards",
	})
	out, err := svc.Render(ctx, fromFile, listing.Request{})
	if err != nil {
		t.Fatalf("render file template: %v", err)
	}
	if out != "<li>Alpha</li><li>Bravo</li>" {
		t.Fatalf("unexpected file output: %q", out)
	}

	both, err := svc.Update(ctx, listing.UpdateElementInput{ID: fromFile.ID, ListingTemplate: stringPtr("inline")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	out, err = svc.Render(ctx, both, listing.Request{})
	if err != nil || out != "inline" {
		t.Fatalf("expected string template to win, got %q %v", out, err)
	}

	none := mustCreateElement(t, svc, listing.CreateElementInput{Key: "none", ListingTemplate: stringPtr("")})
	out, err = svc.Render(ctx, none, listing.Request{})
	if err != nil || out != "" {
		t.Fatalf("expected empty output without templates, got %q %v", out, err)
	}

	bare := newService(t, graph)
	element := mustCreateElement(t, bare, listing.CreateElementInput{Key: "bare"})
	if _, err := bare.Render(ctx, element, listing.Request{}); !errors.Is(err, listing.ErrRendererRequired) {
		t.Fatalf("expected ErrRendererRequired, got %v", err)
	}
}

func TestTemplateFiles(t *testing.T) {
	root := t.TempDir()
	if err := testsupport.WriteFiles(root, map[string]string{
		filepath.Join("templates", "listing", "cards.html"): "",
		filepath.Join("templates", "listing", "notes.txt"):  "",
		filepath.Join("templates", "other", "grid.html"):    "",
	}); err != nil {
		t.Fatalf("write templates: %v", err)
	}
	templatesCfg := runtimeconfig.DefaultConfig().Templates
	templatesCfg.FileSources = []string{root, filepath.Join(root, "missing")}
	svc := newService(t, newMemoryGraph(t), listing.WithTemplatesConfig(templatesCfg))

	files, err := svc.TemplateFiles()
	if err != nil {
		t.Fatalf("template files: %v", err)
	}
	if len(files) != 1 || files["listing/cards"] != "cards" {
		t.Fatalf("unexpected template files: %v", files)
	}
}
