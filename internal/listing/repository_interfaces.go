package listing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ElementRepository exposes persistence operations for listing elements.
type ElementRepository interface {
	Create(ctx context.Context, element *Element) (*Element, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Element, error)
	GetByKey(ctx context.Context, key string) (*Element, error)
	List(ctx context.Context) ([]*Element, error)
	Update(ctx context.Context, element *Element) (*Element, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotFoundError is returned when an element cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}
