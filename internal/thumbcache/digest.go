package thumbcache

import (
	_ "crypto/sha256" // registers SHA-256 for go-digest

	digest "github.com/opencontainers/go-digest"
)

// ContentDigest is the lowercase hex SHA-256 of a photo's raw bytes
// (64 characters). It is the cache key for thumbnails.
type ContentDigest string

// DigestOf computes the ContentDigest of data.
func DigestOf(data []byte) ContentDigest {
	return ContentDigest(digest.SHA256.FromBytes(data).Encoded())
}

// Validate reports whether d is a well-formed lowercase SHA-256 hex string.
// Store paths are only ever derived from validated digests.
func (d ContentDigest) Validate() error {
	return digest.NewDigestFromEncoded(digest.SHA256, string(d)).Validate()
}

func (d ContentDigest) String() string {
	return string(d)
}

// Short returns the first 12 characters, for log lines.
func (d ContentDigest) Short() string {
	if len(d) > 12 {
		return string(d[:12])
	}
	return string(d)
}
