package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Key derives a cache key from an operation prefix and its parameters.
//
// The parameters are encoded as JSON, which sorts map keys and keeps struct
// fields in declaration order, so equal parameters always produce the same
// key. The encoding is hashed with the 128-bit xxh3 digest and rendered as
// prefix + ":" + 32 hex characters.
func Key(prefix string, params interface{}) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encoding cache key params for %s: %w", prefix, err)
	}
	sum := xxh3.Hash128(data).Bytes()
	return prefix + ":" + hex.EncodeToString(sum[:]), nil
}

// keyPrefix returns the operation prefix of a key built by Key.
func keyPrefix(key string) string {
	prefix, _, _ := strings.Cut(key, ":")
	return prefix
}
