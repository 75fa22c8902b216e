package records

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewRecordRepository creates a go-repository-bun repository for records.
func NewRecordRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord:          func() *Record { return &Record{} },
		GetID:              func(record *Record) uuid.UUID { return record.ID },
		SetID:              func(record *Record, id uuid.UUID) { record.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(record *Record) string { return record.ID.String() },
	})
}

// NewRelationRepository creates a go-repository-bun repository for relation rows.
func NewRelationRepository(db *bun.DB) repository.Repository[*Relation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Relation]{
		NewRecord:          func() *Relation { return &Relation{} },
		GetID:              func(row *Relation) uuid.UUID { return row.ID },
		SetID:              func(row *Relation, id uuid.UUID) { row.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(row *Relation) string { return row.ID.String() },
	})
}
