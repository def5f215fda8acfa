package fscache

import (
	"crypto/md5" //nolint:gosec // content-addressed filename, not a security boundary
	"encoding/hex"
)

// hashKey derives the stable filename stem for a cache key, per spec.md
// §4.3 "Path derivation" (MD5 of the key, hex-encoded).
func hashKey(key string) string {
	sum := md5.Sum([]byte(key)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
