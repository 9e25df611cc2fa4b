// Package fingerprint computes the deterministic digests used as
// deduplication keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gowebpki/jcs"
)

// Fingerprint is a lowercase hex sha-256 digest, or Empty.
type Fingerprint = string

// Empty is the fingerprint of an empty file set. It is a sentinel, not a
// digest, and does not distinguish one empty set from another.
const Empty Fingerprint = "0"

// ContentHash returns the hex sha-256 of data.
func ContentHash(data []byte) Fingerprint {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileSetHash hashes each payload, sorts the digests and hashes their
// canonical JSON array encoding. The result does not depend on order.
func FileSetHash(files [][]byte) Fingerprint {
	if len(files) == 0 {
		return Empty
	}
	digests := make([]string, len(files))
	for i, data := range files {
		digests[i] = ContentHash(data)
	}
	sort.Strings(digests)

	// An array of hex strings is already canonical JSON.
	encoded, _ := json.Marshal(digests)
	return ContentHash(encoded)
}

// CanonicalJSON encodes v per RFC 8785.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return canonical, nil
}

// CompositeHash scopes primary by metadata: sha256(primary || sha256(JCS(metadata))).
// A nil metadata map hashes like an empty one.
func CompositeHash(primary Fingerprint, metadata map[string]any) (Fingerprint, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	canonical, err := CanonicalJSON(metadata)
	if err != nil {
		return "", err
	}
	return ContentHash([]byte(primary + ContentHash(canonical))), nil
}

// SeriesHash returns sha256(name || raw).
func SeriesHash(name string, raw []byte) Fingerprint {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}
