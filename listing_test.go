package listing_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	listing "github.com/goliatone/go-cms-listing"
	"github.com/goliatone/go-cms-listing/pkg/testsupport"
)

func newModule(t *testing.T, cfg listing.Config) *listing.Module {
	t.Helper()
	module, err := listing.New(cfg, listing.WithTypes(
		listing.TypeDefinition{Name: "Page", ParentType: "Page", Fields: []string{"Content"}},
		listing.TypeDefinition{
			Name:     "NewsArticle",
			Base:     "Page",
			Fields:   []string{"Author"},
			ManyMany: map[string]listing.RelationDefinition{"Topics": {Target: "Topic"}},
		},
		listing.TypeDefinition{Name: "Topic", Fields: []string{"Code"}},
	))
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return module
}

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := testsupport.WriteFiles(root, map[string]string{
		"news.md":                         "---\ntype: Page\ntitle: News\n---\n",
		filepath.Join("news", "alpha.md"): "---\ntype: NewsArticle\ntitle: Alpha\nparent: news\nTopics: [go]\n---\n",
		filepath.Join("news", "bravo.md"): "---\ntype: NewsArticle\ntitle: Bravo\nparent: news\ndraft: true\n---\n",
		filepath.Join("topics", "go.md"):  "---\ntype: Topic\ntitle: Go\nCode: GO\n---\n",
	}); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}
	return root
}

func TestModuleRendersFixturesOverHTTP(t *testing.T) {
	ctx := context.Background()
	cfg := listing.DefaultConfig()
	cfg.Features.Preview = true
	module := newModule(t, cfg)

	if _, err := module.LoadFixtures(ctx, ""); !errors.Is(err, listing.ErrFixturesDirRequired) {
		t.Fatalf("expected ErrFixturesDirRequired, got %v", err)
	}
	result, err := module.LoadFixtures(ctx, writeSite(t))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(result.Created) != 4 || result.Related != 1 {
		t.Fatalf("unexpected fixture result: %+v", result)
	}

	news, err := module.Records().GetRecordBySlug(ctx, "Page", "news")
	if err != nil {
		t.Fatalf("get news: %v", err)
	}
	tpl := `{% for item in Items %}[{{ item.Title }}]{% endfor %}`
	if _, err := module.Elements().Create(ctx, listing.CreateElementInput{
		Key:             "latest",
		ListType:        "NewsArticle",
		ListingSourceID: &news.ID,
		ListingTemplate: &tpl,
	}); err != nil {
		t.Fatalf("create latest element: %v", err)
	}
	if _, err := module.Elements().Create(ctx, listing.CreateElementInput{
		Key:                      "news",
		ListType:                 "NewsArticle",
		ListingSourceID:          &news.ID,
		ListingTemplate:          &tpl,
		ComponentFilterName:      "Topics",
		ComponentFilterColumn:    "Code",
		ComponentListingTemplate: `{% for item in Items %}({{ item.Title }}){% endfor %}`,
	}); err != nil {
		t.Fatalf("create news element: %v", err)
	}

	out, err := module.Render(ctx, "latest", listing.Request{})
	if err != nil || out != "[Alpha]" {
		t.Fatalf("expected published items only, got %q %v", out, err)
	}
	out, err = module.Render(ctx, "news", listing.Request{})
	if err != nil || out != "(Go)" {
		t.Fatalf("expected the component listing without an action, got %q %v", out, err)
	}

	handler, err := module.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	cases := map[string]string{
		"/elements/latest":           "[Alpha]",
		"/elements/latest?preview=1": "[Alpha][Bravo]",
		"/elements/news":             "(Go)",
		"/elements/news/GO":          "[Alpha]",
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s: expected %q, got %d %q", path, want, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/api/listing/elements", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"key":"news"`) {
		t.Fatalf("unexpected admin listing: %d %s", rec.Code, rec.Body.String())
	}
}

func TestModuleRejectsInvalidConfig(t *testing.T) {
	cfg := listing.DefaultConfig()
	cfg.Listing.PageVarPrefix = ""
	if _, err := listing.New(cfg); !errors.Is(err, listing.ErrPageVarPrefixRequired) {
		t.Fatalf("expected ErrPageVarPrefixRequired, got %v", err)
	}
}
