package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON hashes the JSON encoding of v. Maps encode with sorted keys,
// so equal count and link maps hash equally. Values that cannot be
// encoded hash to "".
func HashJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return Hash(data)
}

// hashKey names an entry "<kind>:<digest>" where the digest covers every
// part in order.
func hashKey(kind string, parts ...any) string {
	return kind + ":" + HashJSON(parts)
}
