package records

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// NewMemoryRecordRepository constructs an in-memory record repository.
func NewMemoryRecordRepository() RecordRepository {
	return &memoryRecordRepository{
		byID:     make(map[uuid.UUID]*Record),
		byParent: make(map[uuid.UUID][]uuid.UUID),
	}
}

type memoryRecordRepository struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*Record
	byParent map[uuid.UUID][]uuid.UUID
	order    []uuid.UUID
}

func (m *memoryRecordRepository) Create(_ context.Context, record *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneRecord(record)
	m.byID[cloned.ID] = cloned
	if cloned.ParentID != nil {
		m.byParent[*cloned.ParentID] = append(m.byParent[*cloned.ParentID], cloned.ID)
	}
	m.order = append(m.order, cloned.ID)
	return cloneRecord(cloned), nil
}

func (m *memoryRecordRepository) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "record", Key: id.String()}
	}
	return cloneRecord(record), nil
}

func (m *memoryRecordRepository) ListByParent(_ context.Context, parentID uuid.UUID) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byParent[parentID]
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneRecord(m.byID[id]))
	}
	sortRecords(out, "Sort", false)
	return out, nil
}

func (m *memoryRecordRepository) Find(_ context.Context, query Query) ([]*Record, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*Record, 0)
	for _, id := range m.order {
		record := m.byID[id]
		if query.matches(record) {
			matched = append(matched, record)
		}
	}
	sortRecords(matched, query.SortField, query.SortDesc)
	total := len(matched)

	page := paginate(matched, query.Limit, query.Offset)
	out := make([]*Record, 0, len(page))
	for _, record := range page {
		out = append(out, cloneRecord(record))
	}
	return out, total, nil
}

func (m *memoryRecordRepository) Update(_ context.Context, record *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[record.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "record", Key: record.ID.String()}
	}
	if !sameParent(existing.ParentID, record.ParentID) {
		if existing.ParentID != nil {
			m.byParent[*existing.ParentID] = removeID(m.byParent[*existing.ParentID], record.ID)
		}
		if record.ParentID != nil {
			m.byParent[*record.ParentID] = append(m.byParent[*record.ParentID], record.ID)
		}
	}
	cloned := cloneRecord(record)
	m.byID[record.ID] = cloned
	return cloneRecord(cloned), nil
}

func (m *memoryRecordRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "record", Key: id.String()}
	}
	if record.ParentID != nil {
		m.byParent[*record.ParentID] = removeID(m.byParent[*record.ParentID], id)
	}
	delete(m.byID, id)
	delete(m.byParent, id)
	m.order = removeID(m.order, id)
	return nil
}

// NewMemoryRelationRepository constructs an in-memory relation repository.
func NewMemoryRelationRepository() RelationRepository {
	return &memoryRelationRepository{}
}

type memoryRelationRepository struct {
	mu   sync.RWMutex
	rows []*Relation
}

func (m *memoryRelationRepository) ListByRecord(_ context.Context, recordID uuid.UUID, name string) ([]*Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Relation, 0)
	for _, row := range m.rows {
		if row.RecordID == recordID && row.Name == name {
			out = append(out, cloneRelation(row))
		}
	}
	slices.SortStableFunc(out, func(a, b *Relation) int { return a.Position - b.Position })
	return out, nil
}

func (m *memoryRelationRepository) ListByTargets(_ context.Context, name string, targetIDs []uuid.UUID) ([]*Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Relation, 0)
	for _, row := range m.rows {
		if row.Name == name && slices.Contains(targetIDs, row.TargetID) {
			out = append(out, cloneRelation(row))
		}
	}
	return out, nil
}

func (m *memoryRelationRepository) Replace(_ context.Context, recordID uuid.UUID, name string, relations []*Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = slices.DeleteFunc(m.rows, func(row *Relation) bool {
		return row.RecordID == recordID && row.Name == name
	})
	for _, row := range relations {
		m.rows = append(m.rows, cloneRelation(row))
	}
	return nil
}

func (m *memoryRelationRepository) DeleteByRecord(_ context.Context, recordID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = slices.DeleteFunc(m.rows, func(row *Relation) bool {
		return row.RecordID == recordID || row.TargetID == recordID
	})
	return nil
}

func cloneRecord(record *Record) *Record {
	if record == nil {
		return nil
	}
	cloned := *record
	if record.ParentID != nil {
		parent := *record.ParentID
		cloned.ParentID = &parent
	}
	if record.Fields != nil {
		cloned.Fields = maps.Clone(record.Fields)
	}
	return &cloned
}

func cloneRelation(row *Relation) *Relation {
	if row == nil {
		return nil
	}
	cloned := *row
	return &cloned
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	return slices.DeleteFunc(slices.Clone(ids), func(candidate uuid.UUID) bool { return candidate == id })
}
