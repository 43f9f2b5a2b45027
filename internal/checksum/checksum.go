// Package checksum produces short, stable content fingerprints.
package checksum

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Sum returns the hex-encoded xxhash64 digest of data.
func Sum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// String returns the hex-encoded xxhash64 digest of s.
func String(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}
