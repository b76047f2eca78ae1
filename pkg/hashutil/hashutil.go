// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package hashutil provides the SHA-256 primitive used for seed
// fingerprints, file entries, and CPACK payload hashes. The pack_hash
// reduction in pkg/manifest hashes with crypto/sha256 directly.
package hashutil

import (
	"crypto"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"regexp"

	"github.com/pkg/errors"
)

// TypedHash pairs a hash.Hash with the crypto.Hash algorithm it implements,
// so callers that thread a hasher through several layers don't have to
// re-derive which algorithm produced it.
type TypedHash struct {
	hash.Hash
	Algorithm crypto.Hash
}

// NewTypedHash constructs a TypedHash for the given algorithm.
func NewTypedHash(algo crypto.Hash) TypedHash {
	return TypedHash{Hash: algo.New(), Algorithm: algo}
}

var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// SHA256Bytes returns the SHA-256 digest of b.
func SHA256Bytes(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// SHA256Hex returns the lowercase hex-encoded SHA-256 digest of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// SHA256File streams path through SHA-256 without buffering its full
// contents, returning the hex digest and byte length.
func SHA256File(path string) (digest string, size uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrap(err, "opening file for hashing")
	}
	defer f.Close()
	h := NewTypedHash(crypto.SHA256)
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, errors.Wrap(err, "hashing file contents")
	}
	return hex.EncodeToString(h.Sum(nil)), uint64(n), nil
}

// IsHex64 reports whether s is a well-formed 64-character lowercase hex
// SHA-256 digest.
func IsHex64(s string) bool {
	return hexPattern.MatchString(s)
}
