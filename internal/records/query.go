package records

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// matches evaluates every Query constraint except Relation against record.
func (q Query) matches(record *Record) bool {
	if record == nil {
		return false
	}
	if !q.IncludeDrafts && !record.Published() {
		return false
	}
	if len(q.Types) > 0 && !slices.Contains(q.Types, record.Type) {
		return false
	}
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, record.ID) {
		return false
	}
	if len(q.ParentIDs) > 0 {
		if record.ParentID == nil || !slices.Contains(q.ParentIDs, *record.ParentID) {
			return false
		}
	}
	for field, want := range q.Where {
		got, ok := record.Value(field)
		if !ok || compareValues(got, want) != 0 {
			return false
		}
	}
	return true
}

func sortRecords(items []*Record, field string, desc bool) {
	if field == "" {
		field = "Title"
	}
	slices.SortStableFunc(items, func(a, b *Record) int {
		av, _ := a.Value(field)
		bv, _ := b.Value(field)
		cmp := compareValues(av, bv)
		if desc {
			cmp = -cmp
		}
		return cmp
	})
}

func paginate(items []*Record, limit, offset int) []*Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []*Record{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// compareValues orders numbers numerically, times chronologically and
// everything else by its string form. Missing values sort first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	return strings.Compare(stringValue(a), stringValue(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case uuid.UUID:
		return value.String()
	case *uuid.UUID:
		if value == nil {
			return ""
		}
		return value.String()
	case time.Time:
		return value.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
