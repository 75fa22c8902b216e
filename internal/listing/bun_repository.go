package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunElementRepository implements ElementRepository with optional caching.
type BunElementRepository struct {
	repo repository.Repository[*Element]
}

// NewBunElementRepository creates an element repository without caching.
func NewBunElementRepository(db *bun.DB) *BunElementRepository {
	return NewBunElementRepositoryWithCache(db, nil, nil)
}

// NewBunElementRepositoryWithCache creates an element repository with caching services.
func NewBunElementRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunElementRepository {
	base := NewElementRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunElementRepository{repo: base}
}

func (r *BunElementRepository) Create(ctx context.Context, element *Element) (*Element, error) {
	record, err := r.repo.Create(ctx, element)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunElementRepository) GetByID(ctx context.Context, id uuid.UUID) (*Element, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "listing_element", id.String())
	}
	return record, nil
}

func (r *BunElementRepository) GetByKey(ctx context.Context, key string) (*Element, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.key = ?", key)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "listing_element", key)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "listing_element", Key: key}
	}
	return records[0], nil
}

func (r *BunElementRepository) List(ctx context.Context) ([]*Element, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.key ASC")
	}))
	return records, err
}

func (r *BunElementRepository) Update(ctx context.Context, element *Element) (*Element, error) {
	updated, err := r.repo.Update(ctx, element,
		repository.UpdateByID(element.ID.String()),
		repository.UpdateColumns(
			"key",
			"title",
			"per_page",
			"sort_by",
			"custom_sort",
			"sort_dir",
			"list_type",
			"listing_source_id",
			"depth",
			"strict_type",
			"allow_drilldown",
			"component_filter_name",
			"component_filter_column",
			"component_filter_where",
			"listing_template",
			"component_listing_template",
			"listing_template_file",
			"component_listing_template_file",
			"updated_by",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "listing_element", element.ID.String())
	}
	return updated, nil
}

func (r *BunElementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, &Element{ID: id}); err != nil {
		return mapRepositoryError(err, "listing_element", id.String())
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
