package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDIsStableAndScoped(t *testing.T) {
	first := RecordUUID("Article", "hello-world")
	second := RecordUUID(" article ", "HELLO-WORLD")
	if first != second {
		t.Fatalf("expected normalised keys to match, got %s vs %s", first, second)
	}
	if first == ElementUUID("hello-world") {
		t.Fatal("expected record and element ids to differ")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if UUID("  ") != uuid.Nil {
		t.Fatal("expected nil uuid for blank key")
	}
}

func TestRelationUUIDDependsOnAllParts(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	if RelationUUID(a, "Tags", b) == RelationUUID(b, "Tags", a) {
		t.Fatal("expected direction to matter")
	}
}
