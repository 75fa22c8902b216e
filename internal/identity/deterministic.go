package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Keys must be prefixed by domain so different entity kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// RecordUUID identifies a record by its type and slug, used by fixture imports.
func RecordUUID(typeName, slug string) uuid.UUID {
	return UUID("go-cms-listing:record:" + strings.ToLower(strings.TrimSpace(typeName)) + ":" + strings.ToLower(strings.TrimSpace(slug)))
}

// ElementUUID identifies a listing element by its key.
func ElementUUID(key string) uuid.UUID {
	return UUID("go-cms-listing:element:" + strings.ToLower(strings.TrimSpace(key)))
}

// RelationUUID identifies one many-to-many row.
func RelationUUID(recordID uuid.UUID, name string, targetID uuid.UUID) uuid.UUID {
	return UUID("go-cms-listing:relation:" + recordID.String() + ":" + strings.TrimSpace(name) + ":" + targetID.String())
}
