package util

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// HashKey returns a filesystem-safe identifier for an arbitrary string.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes a set of named inputs into a stable hex digest.
// Keys are hashed in sorted order so the result is independent of map
// iteration; values are JSON-encoded so nested content hashes canonically
// (encoding/json sorts struct-map keys).
func Fingerprint(inputs map[string]any) (string, error) {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		payload, err := json.Marshal(inputs[k])
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", k, err)
		}
		fmt.Fprintf(h, "%s=%s;", k, payload)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
