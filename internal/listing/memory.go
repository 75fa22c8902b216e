package listing

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// NewMemoryElementRepository constructs an in-memory element repository.
func NewMemoryElementRepository() ElementRepository {
	return &memoryElementRepository{
		byID:  make(map[uuid.UUID]*Element),
		byKey: make(map[string]uuid.UUID),
	}
}

type memoryElementRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Element
	byKey map[string]uuid.UUID
}

func (m *memoryElementRepository) Create(_ context.Context, element *Element) (*Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneElement(element)
	m.byID[cloned.ID] = cloned
	if cloned.Key != "" {
		m.byKey[strings.ToLower(cloned.Key)] = cloned.ID
	}
	return cloneElement(cloned), nil
}

func (m *memoryElementRepository) GetByID(_ context.Context, id uuid.UUID) (*Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	element, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "listing_element", Key: id.String()}
	}
	return cloneElement(element), nil
}

func (m *memoryElementRepository) GetByKey(_ context.Context, key string) (*Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, &NotFoundError{Resource: "listing_element", Key: key}
	}
	return cloneElement(m.byID[id]), nil
}

func (m *memoryElementRepository) List(_ context.Context) ([]*Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Element, 0, len(m.byID))
	for _, element := range m.byID {
		out = append(out, cloneElement(element))
	}
	slices.SortFunc(out, func(a, b *Element) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (m *memoryElementRepository) Update(_ context.Context, element *Element) (*Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[element.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "listing_element", Key: element.ID.String()}
	}
	if existing.Key != element.Key {
		delete(m.byKey, strings.ToLower(existing.Key))
		if element.Key != "" {
			m.byKey[strings.ToLower(element.Key)] = element.ID
		}
	}
	cloned := cloneElement(element)
	m.byID[element.ID] = cloned
	return cloneElement(cloned), nil
}

func (m *memoryElementRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	element, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "listing_element", Key: id.String()}
	}
	delete(m.byKey, strings.ToLower(element.Key))
	delete(m.byID, id)
	return nil
}

func cloneElement(element *Element) *Element {
	if element == nil {
		return nil
	}
	cloned := *element
	if element.ListingSourceID != nil {
		source := *element.ListingSourceID
		cloned.ListingSourceID = &source
	}
	if element.ComponentFilterWhere != nil {
		cloned.ComponentFilterWhere = maps.Clone(element.ComponentFilterWhere)
	}
	return &cloned
}
