package transparency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashCanonical serializes v to canonical JSON and returns the lowercase
// hex sha256 of the bytes. Payload structs declare their fields in
// lexicographic tag order and maps marshal with sorted keys, so equal
// snapshots always hash equally.
func HashCanonical(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// MerkleRoot folds a list of hex leaf hashes into a single root. Pairs are
// combined by hashing the concatenation of the two hex strings; an odd
// element at any level is paired with itself. An empty leaf list yields
// the hash of the empty byte string.
func MerkleRoot(hashes []string) string {
	if len(hashes) == 0 {
		sum := sha256.Sum256(nil)
		return hex.EncodeToString(sum[:])
	}

	level := make([]string, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			sum := sha256.Sum256([]byte(left + right))
			next = append(next, hex.EncodeToString(sum[:]))
		}
		level = next
	}
	return level[0]
}
