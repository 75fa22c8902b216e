package records

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// BunRecordRepository implements RecordRepository with optional caching.
// Lookups by ID go through the cache; tree and listing queries hit the database.
type BunRecordRepository struct {
	db   *bun.DB
	repo repository.Repository[*Record]
}

// NewBunRecordRepository creates a record repository without caching.
func NewBunRecordRepository(db *bun.DB) *BunRecordRepository {
	return NewBunRecordRepositoryWithCache(db, nil, nil)
}

// NewBunRecordRepositoryWithCache creates a record repository with caching.
func NewBunRecordRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRecordRepository {
	base := NewRecordRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunRecordRepository{db: db, repo: base}
}

func (r *BunRecordRepository) Create(ctx context.Context, record *Record) (*Record, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "record", id.String())
	}
	return record, nil
}

func (r *BunRecordRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*Record, error) {
	if r.db == nil {
		return nil, fmt.Errorf("record repository: database not configured")
	}
	var rows []*Record
	if err := r.db.NewSelect().
		Model(&rows).
		Where("?TableAlias.parent_id = ?", parentID).
		OrderExpr("?TableAlias.sort ASC").
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list child records: %w", err)
	}
	return rows, nil
}

func (r *BunRecordRepository) Find(ctx context.Context, query Query) ([]*Record, int, error) {
	if r.db == nil {
		return nil, 0, fmt.Errorf("record repository: database not configured")
	}
	dialectName := r.db.Dialect().Name()

	countQuery := r.db.NewSelect().Model((*Record)(nil))
	applyQueryFilters(countQuery, query, dialectName)
	total, err := countQuery.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	var rows []*Record
	listQuery := r.db.NewSelect().Model(&rows)
	applyQueryFilters(listQuery, query, dialectName)
	applyQuerySort(listQuery, query, dialectName)
	if query.Limit > 0 {
		listQuery.Limit(query.Limit)
	}
	if query.Offset > 0 {
		listQuery.Offset(query.Offset)
	}
	if err := listQuery.Scan(ctx); err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	if rows == nil {
		rows = []*Record{}
	}
	return rows, total, nil
}

func (r *BunRecordRepository) Update(ctx context.Context, record *Record) (*Record, error) {
	updated, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"type",
			"parent_id",
			"title",
			"slug",
			"sort",
			"status",
			"fields",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "record", record.ID.String())
	}
	return updated, nil
}

func (r *BunRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, &Record{ID: id}); err != nil {
		return mapRepositoryError(err, "record", id.String())
	}
	return nil
}

func applyQueryFilters(q *bun.SelectQuery, query Query, dialectName dialect.Name) {
	if !query.IncludeDrafts {
		q.Where("?TableAlias.status = ?", StatusPublished)
	}
	if len(query.Types) > 0 {
		q.Where("?TableAlias.type IN (?)", bun.In(query.Types))
	}
	if len(query.IDs) > 0 {
		q.Where("?TableAlias.id IN (?)", bun.In(query.IDs))
	}
	if len(query.ParentIDs) > 0 {
		q.Where("?TableAlias.parent_id IN (?)", bun.In(query.ParentIDs))
	}
	for field, value := range query.Where {
		if column, ok := columnFor(field); ok {
			q.Where("?TableAlias.? = ?", bun.Ident(column), value)
			continue
		}
		expr, arg := jsonFieldExpr(dialectName, field)
		q.Where(expr+" = ?", arg, stringValue(value))
	}
}

func applyQuerySort(q *bun.SelectQuery, query Query, dialectName dialect.Name) {
	field := query.SortField
	if field == "" {
		field = "Title"
	}
	dir := "ASC"
	if query.SortDesc {
		dir = "DESC"
	}
	if column, ok := columnFor(field); ok {
		q.OrderExpr("?TableAlias.? "+dir, bun.Ident(column))
	} else {
		expr, arg := jsonSortExpr(dialectName, field)
		q.OrderExpr(expr+" "+dir, arg)
	}
	q.OrderExpr("?TableAlias.created_at ASC")
}

// jsonFieldExpr returns a text expression reading a declared field from the
// JSON payload, plus the argument bound to its placeholder.
func jsonFieldExpr(dialectName dialect.Name, field string) (string, any) {
	if dialectName == dialect.PG {
		return "(?TableAlias.fields ->> ?)", field
	}
	return "CAST(json_extract(?TableAlias.fields, ?) AS TEXT)", "$." + field
}

// jsonSortExpr reads a declared field keeping its JSON type, so numbers order
// numerically like the memory repository.
func jsonSortExpr(dialectName dialect.Name, field string) (string, any) {
	if dialectName == dialect.PG {
		return "(?TableAlias.fields -> ?)", field
	}
	return "json_extract(?TableAlias.fields, ?)", "$." + field
}

// BunRelationRepository implements RelationRepository. Rows are replaced in
// bulk inside a transaction, so reads are never cached.
type BunRelationRepository struct {
	db   *bun.DB
	repo repository.Repository[*Relation]
}

// NewBunRelationRepository creates a relation repository.
func NewBunRelationRepository(db *bun.DB) *BunRelationRepository {
	return &BunRelationRepository{db: db, repo: NewRelationRepository(db)}
}

func (r *BunRelationRepository) ListByRecord(ctx context.Context, recordID uuid.UUID, name string) ([]*Relation, error) {
	rows, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.record_id = ?", recordID).
			Where("?TableAlias.name = ?", name).
			OrderExpr("?TableAlias.position ASC")
	}))
	return rows, err
}

func (r *BunRelationRepository) ListByTargets(ctx context.Context, name string, targetIDs []uuid.UUID) ([]*Relation, error) {
	if len(targetIDs) == 0 {
		return []*Relation{}, nil
	}
	rows, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.name = ?", name).
			Where("?TableAlias.target_id IN (?)", bun.In(targetIDs))
	}))
	return rows, err
}

func (r *BunRelationRepository) Replace(ctx context.Context, recordID uuid.UUID, name string, relations []*Relation) error {
	if r.db == nil {
		return fmt.Errorf("relation repository: database not configured")
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Relation)(nil)).
			Where("?TableAlias.record_id = ?", recordID).
			Where("?TableAlias.name = ?", name).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete relations: %w", err)
		}

		if len(relations) == 0 {
			return nil
		}

		now := time.Now().UTC()
		toInsert := make([]*Relation, 0, len(relations))
		for _, row := range relations {
			if row == nil {
				continue
			}
			cloned := *row
			cloned.RecordID = recordID
			cloned.Name = name
			if cloned.ID == uuid.Nil {
				cloned.ID = uuid.New()
			}
			if cloned.CreatedAt.IsZero() {
				cloned.CreatedAt = now
			}
			toInsert = append(toInsert, &cloned)
		}
		if len(toInsert) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&toInsert).Exec(ctx); err != nil {
			return fmt.Errorf("insert relations: %w", err)
		}
		return nil
	})
}

func (r *BunRelationRepository) DeleteByRecord(ctx context.Context, recordID uuid.UUID) error {
	if r.db == nil {
		return fmt.Errorf("relation repository: database not configured")
	}
	if _, err := r.db.NewDelete().
		Model((*Relation)(nil)).
		WhereGroup(" AND ", func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.Where("?TableAlias.record_id = ?", recordID).
				WhereOr("?TableAlias.target_id = ?", recordID)
		}).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete relations: %w", err)
	}
	return nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if errors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
