// Package csprng provides the cryptographic nonce source shared by the
// digestmd5 and scram mechanisms. A short read or error from the platform
// RNG is always treated as fatal; there is no fallback to a
// non-cryptographic source.
package csprng

import (
	"crypto/rand"
	"fmt"
)

// Bytes returns n cryptographically random bytes, or an error if the
// platform RNG could not be read.
func Bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("csprng: reading %d random bytes: %w", n, err)
	}
	return buf, nil
}
