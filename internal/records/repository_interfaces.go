package records

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RecordRepository exposes persistence operations for records.
type RecordRepository interface {
	Create(ctx context.Context, record *Record) (*Record, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]*Record, error)
	// Find applies every Query constraint except Relation, which the service
	// resolves into IDs.
	Find(ctx context.Context, query Query) ([]*Record, int, error)
	Update(ctx context.Context, record *Record) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RelationRepository exposes persistence operations for many-to-many rows.
type RelationRepository interface {
	ListByRecord(ctx context.Context, recordID uuid.UUID, name string) ([]*Relation, error)
	ListByTargets(ctx context.Context, name string, targetIDs []uuid.UUID) ([]*Relation, error)
	Replace(ctx context.Context, recordID uuid.UUID, name string, relations []*Relation) error
	// DeleteByRecord removes rows where the record is either side.
	DeleteByRecord(ctx context.Context, recordID uuid.UUID) error
}

// NotFoundError is returned when a record resource cannot be located.
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
