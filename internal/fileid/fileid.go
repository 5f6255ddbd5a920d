// Package fileid derives the per-document unique identifier used to name output artifacts.
package fileid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const prefix = "GENERATED_ID_"

// Strategy selects how identifiers are generated.
type Strategy string

const (
	// NameHash derives the identifier from the object name; the same name always
	// yields the same identifier.
	NameHash Strategy = "name_hash"
	// Random yields a fresh identifier per invocation.
	Random Strategy = "uuid"
	// Sortable yields a fresh, time-ordered ULID per invocation.
	Sortable Strategy = "ulid"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case NameHash, Random, Sortable:
		return Strategy(s), nil
	case "":
		return NameHash, nil
	default:
		return "", fmt.Errorf("unknown id strategy %q", s)
	}
}

// Generate returns an identifier for objectName according to s.
func (s Strategy) Generate(objectName string) string {
	switch s {
	case Random:
		return RandomID()
	case Sortable:
		return SortableID()
	}
	return UniqueID(objectName)
}

// UniqueID returns a deterministic identifier for objectName: the prefix followed by the
// first 16 hex characters of its SHA-256. Distinct names may still collide.
func UniqueID(objectName string) string {
	hash := sha256.Sum256([]byte(objectName))
	return prefix + hex.EncodeToString(hash[:8])
}

// RandomID returns a random UUID-based identifier without dashes.
func RandomID() string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// SortableID returns a ULID-based identifier. Identifiers generated later sort after
// earlier ones, also within the same millisecond.
func SortableID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return prefix + ulid.MustNew(ulid.Now(), entropy).String()
}
