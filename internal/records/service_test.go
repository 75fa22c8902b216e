package records_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/goliatone/go-cms-listing/internal/identity"
	"github.com/goliatone/go-cms-listing/internal/records"
	"github.com/google/uuid"
)

func sequentialIDs(prefix string) records.IDGenerator {
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

func newMemoryService(t *testing.T) records.Service {
	t.Helper()
	return records.NewService(
		newSiteCatalog(t),
		records.NewMemoryRecordRepository(),
		records.NewMemoryRelationRepository(),
		records.WithClock(fixedClock()),
		records.WithIDGenerator(sequentialIDs("00000000")),
	)
}

func mustCreate(t *testing.T, svc records.Service, input records.CreateRecordInput) *records.Record {
	t.Helper()
	record, err := svc.CreateRecord(context.Background(), input)
	if err != nil {
		t.Fatalf("create %q: %v", input.Title, err)
	}
	return record
}

func TestServiceCreateRecordNormalizesSlugAndDefaults(t *testing.T) {
	svc := newMemoryService(t)

	record := mustCreate(t, svc, records.CreateRecordInput{Type: "Page", Title: "About Us"})
	if record.Slug != "about-us" {
		t.Fatalf("expected slug about-us, got %q", record.Slug)
	}
	if record.Status != records.StatusPublished {
		t.Fatalf("expected published default, got %q", record.Status)
	}
	if !record.CreatedAt.Equal(fixedClock()()) {
		t.Fatalf("expected clock timestamp, got %v", record.CreatedAt)
	}
}

func TestServiceCreateRecordValidation(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	if _, err := svc.CreateRecord(ctx, records.CreateRecordInput{Type: "Unknown", Title: "x"}); !errors.Is(err, records.ErrRecordTypeUnknown) {
		t.Fatalf("expected ErrRecordTypeUnknown, got %v", err)
	}
	if _, err := svc.CreateRecord(ctx, records.CreateRecordInput{Type: "Page"}); !errors.Is(err, records.ErrRecordTitleRequired) {
		t.Fatalf("expected ErrRecordTitleRequired, got %v", err)
	}
	if _, err := svc.CreateRecord(ctx, records.CreateRecordInput{Type: "Page", Title: "x", Status: "archived"}); !errors.Is(err, records.ErrRecordStatusInvalid) {
		t.Fatalf("expected ErrRecordStatusInvalid, got %v", err)
	}
	if _, err := svc.CreateRecord(ctx, records.CreateRecordInput{Type: "Page", Title: "x", Fields: map[string]any{"Author": "a"}}); !errors.Is(err, records.ErrRecordFieldUnknown) {
		t.Fatalf("expected ErrRecordFieldUnknown, got %v", err)
	}

	mustCreate(t, svc, records.CreateRecordInput{Type: "Page", Title: "News"})
	if _, err := svc.CreateRecord(ctx, records.CreateRecordInput{Type: "NewsArticle", Title: "News"}); !errors.Is(err, records.ErrRecordSlugExists) {
		t.Fatalf("expected ErrRecordSlugExists across the base type, got %v", err)
	}

	topic := mustCreate(t, svc, records.CreateRecordInput{Type: "Topic", Title: "Sports"})
	if _, err := svc.CreateRecord(ctx, records.CreateRecordInput{Type: "Page", Title: "Child", ParentID: &topic.ID}); !errors.Is(err, records.ErrRecordParentType) {
		t.Fatalf("expected ErrRecordParentType, got %v", err)
	}
	page := mustCreate(t, svc, records.CreateRecordInput{Type: "Page", Title: "Home"})
	if _, err := svc.CreateRecord(ctx, records.CreateRecordInput{Type: "Topic", Title: "Nested", ParentID: &page.ID}); !errors.Is(err, records.ErrRecordNotHierarchical) {
		t.Fatalf("expected ErrRecordNotHierarchical, got %v", err)
	}
}

func TestServiceTreeTraversal(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	root := mustCreate(t, svc, records.CreateRecordInput{Type: "Page", Title: "Root"})
	childA := mustCreate(t, svc, records.CreateRecordInput{Type: "Page", Title: "Child A", ParentID: &root.ID, Sort: 1})
	childB := mustCreate(t, svc, records.CreateRecordInput{Type: "Page", Title: "Child B", ParentID: &root.ID, Sort: 2})
	grandchild := mustCreate(t, svc, records.CreateRecordInput{Type: "NewsArticle", Title: "Grandchild", ParentID: &childA.ID})
	great := mustCreate(t, svc, records.CreateRecordInput{Type: "NewsArticle", Title: "Great", ParentID: &grandchild.ID})

	cases := []struct {
		depth int
		want  []uuid.UUID
	}{
		{depth: 0, want: []uuid.UUID{}},
		{depth: 1, want: []uuid.UUID{}},
		{depth: 2, want: []uuid.UUID{childA.ID, childB.ID}},
		{depth: 3, want: []uuid.UUID{childA.ID, grandchild.ID, childB.ID}},
		{depth: 4, want: []uuid.UUID{childA.ID, grandchild.ID, great.ID, childB.ID}},
	}
	for _, tc := range cases {
		got, err := svc.DescendantIDs(ctx, root.ID, tc.depth)
		if err != nil {
			t.Fatalf("DescendantIDs depth %d: %v", tc.depth, err)
		}
		if !slices.Equal(got, tc.want) {
			t.Fatalf("DescendantIDs depth %d = %v, want %v", tc.depth, got, tc.want)
		}
	}

	ancestors, err := svc.Ancestors(ctx, great.ID)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	if len(ancestors) != 3 || ancestors[0].ID != grandchild.ID || ancestors[2].ID != root.ID {
		t.Fatalf("unexpected ancestors: %v", ancestors)
	}

	parent, err := svc.Parent(ctx, root.ID)
	if err != nil || parent != nil {
		t.Fatalf("expected nil parent for root, got %v, %v", parent, err)
	}

	if _, err := svc.UpdateRecord(ctx, records.UpdateRecordInput{ID: root.ID, ParentID: &great.ID}); !errors.Is(err, records.ErrRecordParentCycle) {
		t.Fatalf("expected ErrRecordParentCycle, got %v", err)
	}
	if err := svc.DeleteRecord(ctx, root.ID); !errors.Is(err, records.ErrRecordHasChildren) {
		t.Fatalf("expected ErrRecordHasChildren, got %v", err)
	}
}

func TestServiceFindFiltersSortsAndPaginates(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	holder := mustCreate(t, svc, records.CreateRecordInput{Type: "Page", Title: "News"})
	for i, title := range []string{"Charlie", "Alpha", "Bravo", "Delta"} {
		mustCreate(t, svc, records.CreateRecordInput{
			Type:     "NewsArticle",
			Title:    title,
			ParentID: &holder.ID,
			Fields:   map[string]any{"Author": fmt.Sprintf("author-%d", 4-i)},
		})
	}
	mustCreate(t, svc, records.CreateRecordInput{Type: "NewsArticle", Title: "Echo", ParentID: &holder.ID, Status: records.StatusDraft})

	result, err := svc.Find(ctx, records.Query{Types: []string{"NewsArticle"}, SortField: "Title", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if result.Total != 4 {
		t.Fatalf("expected total 4 published articles, got %d", result.Total)
	}
	if got := titles(result.Items); !slices.Equal(got, []string{"Bravo", "Charlie"}) {
		t.Fatalf("unexpected page: %v", got)
	}

	result, err = svc.Find(ctx, records.Query{Types: []string{"NewsArticle"}, SortField: "Author", SortDesc: true})
	if err != nil {
		t.Fatalf("find by field: %v", err)
	}
	if got := titles(result.Items); !slices.Equal(got, []string{"Charlie", "Alpha", "Bravo", "Delta"}) {
		t.Fatalf("unexpected author order: %v", got)
	}

	result, err = svc.Find(ctx, records.Query{Types: []string{"NewsArticle"}, SortField: "Nope", IncludeDrafts: true})
	if err != nil {
		t.Fatalf("find fallback: %v", err)
	}
	if got := titles(result.Items); !slices.Equal(got, []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"}) {
		t.Fatalf("expected title fallback order with drafts, got %v", got)
	}

	result, err = svc.Find(ctx, records.Query{Types: []string{"NewsArticle"}, Where: map[string]any{"Author": "author-3"}})
	if err != nil {
		t.Fatalf("find where: %v", err)
	}
	if got := titles(result.Items); !slices.Equal(got, []string{"Alpha"}) {
		t.Fatalf("unexpected where result: %v", got)
	}
}

func TestServiceRelationsAndRelationFilter(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	sports := mustCreate(t, svc, records.CreateRecordInput{Type: "Topic", Title: "Sports"})
	music := mustCreate(t, svc, records.CreateRecordInput{Type: "Topic", Title: "Music"})
	first := mustCreate(t, svc, records.CreateRecordInput{Type: "NewsArticle", Title: "Match report"})
	second := mustCreate(t, svc, records.CreateRecordInput{Type: "NewsArticle", Title: "Concert review"})
	page := mustCreate(t, svc, records.CreateRecordInput{Type: "Page", Title: "Plain"})

	rows, err := svc.Relate(ctx, first.ID, "Topics", []uuid.UUID{sports.ID})
	if err != nil {
		t.Fatalf("relate first: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != identity.RelationUUID(first.ID, "Topics", sports.ID) {
		t.Fatalf("expected relation rows keyed by record, name and target, got %+v", rows)
	}
	if _, err := svc.Relate(ctx, second.ID, "Topics", []uuid.UUID{music.ID, sports.ID, music.ID}); err != nil {
		t.Fatalf("relate second: %v", err)
	}
	if _, err := svc.Relate(ctx, page.ID, "Topics", nil); !errors.Is(err, records.ErrRelationUnknown) {
		t.Fatalf("expected ErrRelationUnknown, got %v", err)
	}
	if _, err := svc.Relate(ctx, first.ID, "Topics", []uuid.UUID{page.ID}); !errors.Is(err, records.ErrRelationTargetMismatch) {
		t.Fatalf("expected ErrRelationTargetMismatch, got %v", err)
	}

	related, err := svc.Related(ctx, second.ID, "Topics")
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if got := titles(related); !slices.Equal(got, []string{"Music", "Sports"}) {
		t.Fatalf("unexpected related order: %v", got)
	}

	result, err := svc.Find(ctx, records.Query{
		Types:    []string{"NewsArticle"},
		Relation: &records.RelationFilter{Name: "Topics", TargetIDs: []uuid.UUID{music.ID}},
	})
	if err != nil {
		t.Fatalf("find by relation: %v", err)
	}
	if got := titles(result.Items); !slices.Equal(got, []string{"Concert review"}) {
		t.Fatalf("unexpected relation filter result: %v", got)
	}

	if err := svc.DeleteRecord(ctx, music.ID); err != nil {
		t.Fatalf("delete topic: %v", err)
	}
	related, err = svc.Related(ctx, second.ID, "Topics")
	if err != nil {
		t.Fatalf("related after delete: %v", err)
	}
	if got := titles(related); !slices.Equal(got, []string{"Sports"}) {
		t.Fatalf("expected relation rows removed with target, got %v", got)
	}
}

func TestServiceGetRecordBySlugSearchesSubtypes(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	article := mustCreate(t, svc, records.CreateRecordInput{Type: "NewsArticle", Title: "Launch Day", Status: records.StatusDraft})

	found, err := svc.GetRecordBySlug(ctx, "Page", "launch-day")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if found.ID != article.ID {
		t.Fatalf("expected %s, got %s", article.ID, found.ID)
	}

	_, err = svc.GetRecordBySlug(ctx, "Page", "missing")
	var nf *records.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func titles(items []*records.Record) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}
