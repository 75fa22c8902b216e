package listing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/records"
)

func sequentialIDs(prefix string) func() uuid.UUID {
	counter := 0
	return func() uuid.UUID {
		counter++
		return uuid.MustParse(fmt.Sprintf("%s-0000-0000-0000-%012d", prefix, counter))
	}
}

func fixedClock() func() time.Time {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

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

// site is the record tree most listing tests run against:
//
//	News
//	  Alpha (Topics: go)
//	  Bravo (Topics: go, web)
//	  Charlie (draft)
//	  Archive
//	    Delta (Topics: web)
//	About
//	  Team
type site struct {
	graph   records.Service
	news    *records.Record
	archive *records.Record
	about   *records.Record
	alpha   *records.Record
	bravo   *records.Record
	charlie *records.Record
	delta   *records.Record
	goTopic *records.Record
	web     *records.Record
	rust    *records.Record
}

func newSite(t *testing.T, graph records.Service) *site {
	t.Helper()
	ctx := context.Background()
	create := func(input records.CreateRecordInput) *records.Record {
		t.Helper()
		record, err := graph.CreateRecord(ctx, input)
		if err != nil {
			t.Fatalf("create %q: %v", input.Title, err)
		}
		return record
	}
	relate := func(record *records.Record, targets ...*records.Record) {
		t.Helper()
		ids := make([]uuid.UUID, 0, len(targets))
		for _, target := range targets {
			ids = append(ids, target.ID)
		}
		if _, err := graph.Relate(ctx, record.ID, "Topics", ids); err != nil {
			t.Fatalf("relate %q: %v", record.Title, err)
		}
	}

	s := &site{graph: graph}
	s.news = create(records.CreateRecordInput{Type: "Page", Title: "News", Sort: 1})
	s.about = create(records.CreateRecordInput{Type: "Page", Title: "About", Sort: 2})
	create(records.CreateRecordInput{Type: "Page", Title: "Team", ParentID: &s.about.ID})

	s.goTopic = create(records.CreateRecordInput{Type: "Topic", Title: "Go", Fields: map[string]any{"Code": "GO"}})
	s.web = create(records.CreateRecordInput{Type: "Topic", Title: "Web", Fields: map[string]any{"Code": "WEB"}})
	s.rust = create(records.CreateRecordInput{Type: "Topic", Title: "Rust", Fields: map[string]any{"Code": "RS"}})

	s.alpha = create(records.CreateRecordInput{
		Type: "NewsArticle", Title: "Alpha", ParentID: &s.news.ID, Sort: 3,
		Fields: map[string]any{"Author": "zed", "PublishDate": "2024-01-03"},
	})
	s.bravo = create(records.CreateRecordInput{
		Type: "NewsArticle", Title: "Bravo", ParentID: &s.news.ID, Sort: 1,
		Fields: map[string]any{"Author": "amy", "PublishDate": "2024-01-01"},
	})
	s.charlie = create(records.CreateRecordInput{
		Type: "NewsArticle", Title: "Charlie", ParentID: &s.news.ID, Sort: 2, Status: records.StatusDraft,
		Fields: map[string]any{"Author": "bob", "PublishDate": "2024-01-05"},
	})
	s.archive = create(records.CreateRecordInput{Type: "Page", Title: "Archive", ParentID: &s.news.ID, Sort: 4})
	s.delta = create(records.CreateRecordInput{
		Type: "NewsArticle", Title: "Delta", ParentID: &s.archive.ID,
		Fields: map[string]any{"Author": "kim", "PublishDate": "2024-01-02"},
	})

	relate(s.alpha, s.goTopic)
	relate(s.bravo, s.goTopic, s.web)
	relate(s.delta, s.web)
	return s
}

func newMemoryGraph(t *testing.T) records.Service {
	t.Helper()
	return records.NewService(
		newSiteCatalog(t),
		records.NewMemoryRecordRepository(),
		records.NewMemoryRelationRepository(),
		records.WithClock(fixedClock()),
		records.WithIDGenerator(records.IDGenerator(sequentialIDs("00000000"))),
	)
}

func newService(t *testing.T, graph records.Service, opts ...listing.ServiceOption) listing.Service {
	t.Helper()
	base := []listing.ServiceOption{
		listing.WithClock(fixedClock()),
		listing.WithIDGenerator(listing.IDGenerator(sequentialIDs("eeeeeeee"))),
	}
	svc, err := listing.NewService(listing.NewMemoryElementRepository(), graph, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new listing service: %v", err)
	}
	return svc
}

func mustCreateElement(t *testing.T, svc listing.Service, input listing.CreateElementInput) *listing.Element {
	t.Helper()
	element, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create element %q: %v", input.Title, err)
	}
	return element
}

func intPtr(v int) *int { return &v }

func stringPtr(v string) *string { return &v }

func itemTitles(items []listing.ItemView) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}
