package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	goslug "github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-listing/internal/identity"
	"github.com/goliatone/go-cms-listing/internal/logging"
	"github.com/goliatone/go-cms-listing/internal/markdown"
	"github.com/goliatone/go-cms-listing/internal/records"
	"github.com/goliatone/go-cms-listing/pkg/interfaces"
)

// ContentField receives the Markdown body when the record type declares it.
const ContentField = "Content"

var (
	ErrRecordsServiceRequired = errors.New("fixtures: records service is required")
	ErrTypeMissing            = errors.New("fixtures: frontmatter type is required")
	ErrSlugMissing            = errors.New("fixtures: slug could not be determined")
	ErrDuplicateDocument      = errors.New("fixtures: two documents declare the same record")
	ErrReferenceUnresolved    = errors.New("fixtures: referenced record not found")
	ErrParentCycle            = errors.New("fixtures: documents form a parent cycle")
)

// Config carries the importer dependencies.
type Config struct {
	Records records.Service
	Logger  interfaces.Logger
	// Pattern filters document names, defaults to "*.md".
	Pattern string
	// Shallow skips subdirectories.
	Shallow bool
}

// Result summarises one import run.
type Result struct {
	Created []uuid.UUID
	Updated []uuid.UUID
	Skipped []uuid.UUID
	Related int
}

// Importer turns Markdown documents into records. Parents and relations are
// referenced by slug and may point at documents of the same batch or at
// records that already exist.
type Importer struct {
	records records.Service
	logger  interfaces.Logger
	pattern string
	shallow bool
}

// NewImporter builds an Importer from cfg.
func NewImporter(cfg Config) *Importer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Importer{records: cfg.Records, logger: logger, pattern: cfg.Pattern, shallow: cfg.Shallow}
}

// LoadDirectory reads every document under dir in fsys and imports them.
func (i *Importer) LoadDirectory(ctx context.Context, fsys fs.FS, dir string) (*Result, error) {
	loader := markdown.NewLoader(fsys, markdown.LoaderConfig{Pattern: i.pattern, Recursive: !i.shallow})
	docs, err := loader.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	return i.ImportDocuments(ctx, docs)
}

type entry struct {
	doc       *markdown.Document
	typ       string
	slug      string
	key       string
	id        uuid.UUID
	parent    string
	fields    map[string]any
	relations map[string][]string
}

// ImportDocuments creates or updates one record per document. Records are
// written parents first, relations are replaced once every record exists.
func (i *Importer) ImportDocuments(ctx context.Context, docs []*markdown.Document) (*Result, error) {
	if i.records == nil {
		return nil, ErrRecordsServiceRequired
	}
	catalog := i.records.Catalog()

	entries := make(map[string]*entry, len(docs))
	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		e, err := i.prepare(catalog, doc)
		if err != nil {
			return nil, err
		}
		if existing, dup := entries[e.key]; dup {
			return nil, fmt.Errorf("%w: %s and %s", ErrDuplicateDocument, existing.doc.Path, doc.Path)
		}
		entries[e.key] = e
		keys = append(keys, e.key)
	}

	ordered, err := orderByParent(catalog, entries, keys)
	if err != nil {
		return nil, err
	}

	result := &Result{Created: []uuid.UUID{}, Updated: []uuid.UUID{}, Skipped: []uuid.UUID{}}
	for _, e := range ordered {
		if err := i.apply(ctx, catalog, e, result); err != nil {
			return result, err
		}
	}
	for _, e := range ordered {
		for _, name := range sortedKeys(e.relations) {
			targets, err := i.resolveAll(ctx, catalog, relationTarget(catalog, e.typ, name), e.relations[name])
			if err != nil {
				return result, fmt.Errorf("fixtures: %s relation %s: %w", e.doc.Path, name, err)
			}
			if _, err := i.records.Relate(ctx, e.id, name, targets); err != nil {
				return result, fmt.Errorf("fixtures: %s relation %s: %w", e.doc.Path, name, err)
			}
			result.Related++
		}
	}

	i.logger.Info("fixtures.import.completed",
		"created", len(result.Created),
		"updated", len(result.Updated),
		"skipped", len(result.Skipped),
		"relations", result.Related,
	)
	return result, nil
}

func (i *Importer) prepare(catalog *records.Catalog, doc *markdown.Document) (*entry, error) {
	meta := doc.FrontMatter
	typ := strings.TrimSpace(meta.Type)
	if typ == "" {
		return nil, fmt.Errorf("%w: %s", ErrTypeMissing, doc.Path)
	}
	if !catalog.Has(typ) {
		return nil, fmt.Errorf("%w: %s in %s", records.ErrRecordTypeUnknown, typ, doc.Path)
	}

	slug := strings.TrimSpace(meta.Slug)
	if slug == "" {
		slug = strings.TrimSpace(meta.Title)
	}
	if slug == "" {
		slug = strings.TrimSuffix(path.Base(doc.Path), path.Ext(doc.Path))
	}
	normalized, err := goslug.Normalize(slug)
	if err != nil || normalized == "" {
		return nil, fmt.Errorf("%w: %s", ErrSlugMissing, doc.Path)
	}

	e := &entry{
		doc:       doc,
		typ:       typ,
		slug:      normalized,
		key:       slugKey(catalog, typ, normalized),
		id:        identity.RecordUUID(catalog.BaseType(typ), normalized),
		parent:    strings.TrimSpace(meta.Parent),
		fields:    map[string]any{},
		relations: map[string][]string{},
	}
	for name, value := range meta.Custom {
		switch {
		case declaresField(catalog, typ, name):
			e.fields[name] = value
		case hasRelation(catalog, typ, name):
			e.relations[name] = stringList(value)
		default:
			i.logger.Debug("fixtures.key.ignored", "path", doc.Path, "key", name)
		}
	}
	if body := strings.TrimSpace(string(doc.Body)); body != "" && declaresField(catalog, typ, ContentField) {
		if _, set := e.fields[ContentField]; !set {
			e.fields[ContentField] = body
		}
	}
	return e, nil
}

func (i *Importer) apply(ctx context.Context, catalog *records.Catalog, e *entry, result *Result) error {
	meta := e.doc.FrontMatter
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = fallbackTitle(e.slug)
	}
	status := strings.TrimSpace(meta.Status)
	if status == "" && meta.Draft {
		status = records.StatusDraft
	}
	if status == "" {
		status = records.StatusPublished
	}

	var parentID *uuid.UUID
	if e.parent != "" {
		parentType := catalog.ParentType(e.typ)
		if parentType == "" {
			return fmt.Errorf("fixtures: %s: %w", e.doc.Path, records.ErrRecordNotHierarchical)
		}
		id, err := i.resolve(ctx, catalog, parentType, e.parent)
		if err != nil {
			return fmt.Errorf("fixtures: %s parent: %w", e.doc.Path, err)
		}
		parentID = &id
	}

	existing, err := i.records.GetRecord(ctx, e.id)
	if err != nil {
		var nf *records.NotFoundError
		if !errors.As(err, &nf) {
			return err
		}
		created, err := i.records.CreateRecord(ctx, records.CreateRecordInput{
			ID:       e.id,
			Type:     e.typ,
			ParentID: parentID,
			Title:    title,
			Slug:     e.slug,
			Sort:     meta.Sort,
			Status:   status,
			Fields:   e.fields,
		})
		if err != nil {
			return fmt.Errorf("fixtures: create %s: %w", e.doc.Path, err)
		}
		i.logger.Debug("fixtures.record.created", "path", e.doc.Path, "record_id", created.ID)
		result.Created = append(result.Created, created.ID)
		return nil
	}

	if unchanged(existing, title, e.slug, meta.Sort, status, parentID, e.fields) {
		result.Skipped = append(result.Skipped, existing.ID)
		return nil
	}
	input := records.UpdateRecordInput{
		ID:          existing.ID,
		Title:       &title,
		Slug:        &e.slug,
		Sort:        &meta.Sort,
		Status:      &status,
		Fields:      e.fields,
		ParentID:    parentID,
		ClearParent: parentID == nil,
	}
	if _, err := i.records.UpdateRecord(ctx, input); err != nil {
		return fmt.Errorf("fixtures: update %s: %w", e.doc.Path, err)
	}
	i.logger.Debug("fixtures.record.updated", "path", e.doc.Path, "record_id", existing.ID)
	result.Updated = append(result.Updated, existing.ID)
	return nil
}

// resolve finds a record of typ (or a subtype) by slug, preferring the
// identifier fixtures assign.
func (i *Importer) resolve(ctx context.Context, catalog *records.Catalog, typ, ref string) (uuid.UUID, error) {
	slug, err := goslug.Normalize(ref)
	if err != nil || slug == "" {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrReferenceUnresolved, ref)
	}
	if record, err := i.records.GetRecord(ctx, identity.RecordUUID(catalog.BaseType(typ), slug)); err == nil && catalog.IsA(record.Type, typ) {
		return record.ID, nil
	}
	record, err := i.records.GetRecordBySlug(ctx, typ, slug)
	if err != nil {
		var nf *records.NotFoundError
		if errors.As(err, &nf) {
			return uuid.Nil, fmt.Errorf("%w: %s %s", ErrReferenceUnresolved, typ, slug)
		}
		return uuid.Nil, err
	}
	return record.ID, nil
}

func (i *Importer) resolveAll(ctx context.Context, catalog *records.Catalog, typ string, refs []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := i.resolve(ctx, catalog, typ, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// orderByParent sorts entries so a parent declared in the batch is written
// before its children. Input order is kept otherwise.
func orderByParent(catalog *records.Catalog, entries map[string]*entry, keys []string) ([]*entry, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(keys))
	ordered := make([]*entry, 0, len(keys))

	var visit func(key string) error
	visit = func(key string) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrParentCycle, entries[key].doc.Path)
		}
		state[key] = visiting
		e := entries[key]
		if e.parent != "" {
			if parentType := catalog.ParentType(e.typ); parentType != "" {
				if slug, err := goslug.Normalize(e.parent); err == nil {
					if _, ok := entries[slugKey(catalog, parentType, slug)]; ok {
						if err := visit(slugKey(catalog, parentType, slug)); err != nil {
							return err
						}
					}
				}
			}
		}
		state[key] = done
		ordered = append(ordered, e)
		return nil
	}

	for _, key := range keys {
		if err := visit(key); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

func unchanged(record *records.Record, title, slug string, sort int, status string, parentID *uuid.UUID, fields map[string]any) bool {
	if record.Title != title || record.Slug != slug || record.Sort != sort || record.Status != status {
		return false
	}
	switch {
	case record.ParentID == nil && parentID != nil, record.ParentID != nil && parentID == nil:
		return false
	case record.ParentID != nil && *record.ParentID != *parentID:
		return false
	}
	if len(record.Fields) != len(fields) {
		return false
	}
	for key, value := range fields {
		current, ok := record.Fields[key]
		if !ok || fmt.Sprint(current) != fmt.Sprint(value) {
			return false
		}
	}
	return true
}

// slugKey scopes a slug to the base type family, matching record slug
// uniqueness.
func slugKey(catalog *records.Catalog, typ, slug string) string {
	return catalog.BaseType(typ) + "/" + slug
}

func declaresField(catalog *records.Catalog, typ, field string) bool {
	for name := typ; name != ""; {
		def, ok := catalog.Get(name)
		if !ok {
			return false
		}
		if slices.Contains(def.Fields, field) {
			return true
		}
		name = def.Base
	}
	return false
}

func hasRelation(catalog *records.Catalog, typ, name string) bool {
	_, ok := catalog.Relation(typ, name)
	return ok
}

func relationTarget(catalog *records.Catalog, typ, name string) string {
	rel, _ := catalog.Relation(typ, name)
	return rel.Target
}

func stringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}
		}
		return []string{strings.TrimSpace(v)}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

func sortedKeys(values map[string][]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func fallbackTitle(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for idx, word := range words {
		words[idx] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
