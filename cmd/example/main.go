package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	listing "github.com/goliatone/go-cms-listing"
	listingcmd "github.com/goliatone/go-cms-listing/internal/commands/listing"
)

func main() {
	site := flag.String("site", filepath.Join("cmd", "example", "site"), "directory holding content/ and templates/")
	dsn := flag.String("db", "file:listing_example?mode=memory&cache=shared", "sqlite data source")
	addr := flag.String("addr", "", "serve HTTP on this address after rendering")
	flag.Parse()

	ctx := context.Background()
	if err := run(ctx, *site, *dsn, *addr); err != nil {
		log.Fatalf("example: %v", err)
	}
}

func run(ctx context.Context, site, dsn, addr string) error {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	defer db.Close()

	cfg := listing.DefaultConfig()
	cfg.Storage.Provider = "bun"
	cfg.Cache.DefaultTTL = 30 * time.Second
	cfg.Templates.FileSources = []string{site}
	cfg.Fixtures.Dir = filepath.Join(site, "content")
	cfg.Features.Logger = true
	cfg.Features.Preview = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "console"
	cfg.Logging.Level = "info"
	cfg.Navigation.DefaultGroup = "frontend"
	cfg.Navigation.RouteConfig = &urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    "frontend",
				BaseURL: "http://localhost:8080",
				Paths: map[string]string{
					"record": "/pages/:slug",
					"news":   "/news/:slug",
				},
			},
		},
	}
	cfg.Navigation.TypeRoutes = map[string]string{"NewsArticle": "news"}

	module, err := listing.New(cfg, listing.WithBunDB(db), listing.WithTypes(siteTypes()...))
	if err != nil {
		return err
	}
	if err := module.CreateSchema(ctx); err != nil {
		return err
	}

	result, err := module.LoadFixtures(ctx, "")
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}
	fmt.Printf("fixtures: %d created, %d updated, %d skipped\n", len(result.Created), len(result.Updated), len(result.Skipped))

	news, err := module.Records().GetRecordBySlug(ctx, "Page", "news")
	if err != nil {
		return err
	}
	perPage := 2
	blank := ""
	elements := []listingcmd.UpsertElementCommand{
		{
			Key:                          "news",
			Title:                        "Latest news",
			ListType:                     "NewsArticle",
			ListingSourceID:              &news.ID,
			PerPage:                      &perPage,
			SortBy:                       "PublishDate",
			SortDir:                      "Descending",
			CustomSort:                   "sort",
			AllowDrilldown:               true,
			ComponentFilterName:          "Topics",
			ComponentFilterColumn:        "Code",
			ListingTemplate:              &blank,
			ListingTemplateFile:          "listing/cards",
			ComponentListingTemplateFile: "listing/topics",
		},
		{
			Key:      "topics",
			Title:    "All topics",
			ListType: "Topic",
		},
	}
	for _, msg := range elements {
		out := &listingcmd.UpsertResult{}
		msg.Output = out
		if err := module.Commands().Upsert.Execute(ctx, msg); err != nil {
			return fmt.Errorf("upsert %s: %w", msg.Key, err)
		}
		fmt.Printf("element %s (%s) created=%t\n", out.Element.Key, out.Element.ID, out.Created)
	}

	for _, req := range []listing.Request{
		{URL: "/elements/news"},
		{URL: "/elements/news/releases", Action: "releases"},
	} {
		html, err := module.Render(ctx, "news", req)
		if err != nil {
			return fmt.Errorf("render %s: %w", req.URL, err)
		}
		fmt.Printf("--- %s\n%s\n", req.URL, html)
	}

	if addr == "" {
		return nil
	}
	handler, err := module.Handler()
	if err != nil {
		return err
	}
	fmt.Printf("serving on %s (try /elements/news, /elements/news/go, /admin/api/listing/elements)\n", addr)
	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func siteTypes() []listing.TypeDefinition {
	return []listing.TypeDefinition{
		{Name: "Page", PluralName: "Pages", ParentType: "Page", Fields: []string{"Content"}},
		{
			Name:       "NewsArticle",
			PluralName: "News articles",
			Base:       "Page",
			Fields:     []string{"Author", "PublishDate"},
			ManyMany:   map[string]listing.RelationDefinition{"Topics": {Target: "Topic"}},
		},
		{Name: "Topic", PluralName: "Topics", Fields: []string{"Code"}},
	}
}
