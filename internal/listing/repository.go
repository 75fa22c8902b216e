package listing

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewElementRepository creates a go-repository-bun repository for elements.
func NewElementRepository(db *bun.DB) repository.Repository[*Element] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Element]{
		NewRecord:          func() *Element { return &Element{} },
		GetID:              func(element *Element) uuid.UUID { return element.ID },
		SetID:              func(element *Element, id uuid.UUID) { element.ID = id },
		GetIdentifier:      func() string { return "key" },
		GetIdentifierValue: func(element *Element) string { return element.Key },
	})
}
