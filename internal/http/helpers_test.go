package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/listing"
	"github.com/goliatone/go-cms-listing/internal/records"
	"github.com/goliatone/go-cms-listing/internal/templates"
)

type testSite struct {
	elements listing.Service
	graph    records.Service
	news     *records.Record
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	ctx := context.Background()

	catalog, err := records.NewCatalog(
		records.TypeDefinition{Name: "Page", ParentType: "Page", Fields: []string{"Content"}},
		records.TypeDefinition{
			Name:     "NewsArticle",
			Base:     "Page",
			Fields:   []string{"Author"},
			ManyMany: map[string]records.RelationDefinition{"Topics": {Target: "Topic"}},
		},
		records.TypeDefinition{Name: "Topic", Fields: []string{"Code"}},
	)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	graph := records.NewService(catalog, records.NewMemoryRecordRepository(), records.NewMemoryRelationRepository())

	create := func(input records.CreateRecordInput) *records.Record {
		t.Helper()
		record, err := graph.CreateRecord(ctx, input)
		if err != nil {
			t.Fatalf("create %q: %v", input.Title, err)
		}
		return record
	}
	news := create(records.CreateRecordInput{Type: "Page", Title: "News"})
	goTopic := create(records.CreateRecordInput{Type: "Topic", Title: "Go", Fields: map[string]any{"Code": "GO"}})
	alpha := create(records.CreateRecordInput{Type: "NewsArticle", Title: "Alpha", ParentID: &news.ID})
	create(records.CreateRecordInput{Type: "NewsArticle", Title: "Bravo", ParentID: &news.ID})
	create(records.CreateRecordInput{Type: "NewsArticle", Title: "Charlie", ParentID: &news.ID, Status: records.StatusDraft})
	if _, err := graph.Relate(ctx, alpha.ID, "Topics", []uuid.UUID{goTopic.ID}); err != nil {
		t.Fatalf("relate: %v", err)
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	elements, err := listing.NewService(listing.NewMemoryElementRepository(), graph, listing.WithRenderer(renderer))
	if err != nil {
		t.Fatalf("new listing service: %v", err)
	}
	return &testSite{elements: elements, graph: graph, news: news}
}

func doJSONRequest(t *testing.T, mux *http.ServeMux, method, path string, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d got %d (%s)", wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
