// Package hashing derives the stable digests that act as secondary keys for songs and
// tracks. The scheme must stay byte for byte compatible with the existing data: the full
// metadata string is lowercased, encoded as UTF-8 and hashed with SHA-1.
package hashing

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// DigestLength is the size of a rendered digest, forty lowercase hexadecimal characters.
const DigestLength = 40

// Digest computes the digest of a metadata string, such as "Artist - Title".
// Case differences never produce distinct digests; the empty string is legal input.
func Digest(metadata string) string {
	return fmt.Sprintf("%x", sha1.Sum([]byte(strings.ToLower(metadata))))
}
