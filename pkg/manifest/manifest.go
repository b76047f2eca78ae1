// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package manifest implements the DPACK index: the typed file listing and
// the pack_hash reduction that anchors a DPACK's tree-level integrity.
package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// SchemaVersion is the only schema version this implementation emits or
// accepts.
const SchemaVersion = "1.0"

// FileEntry is the content digest and byte length recorded for one file.
type FileEntry struct {
	SHA256 string `json:"sha256"`
	Size   uint64 `json:"size"`
}

// Manifest is the DPACK index: schema version, seed binding, informational
// metadata, the sorted file listing, and the derived pack_hash.
type Manifest struct {
	SchemaVersion       string               `json:"schema_version"`
	RootSeedFingerprint string               `json:"root_2i_seed_fingerprint"`
	CreatedAt           string               `json:"created_at"`
	SourceRoot          string               `json:"source_root"`
	Files               map[string]FileEntry `json:"files"`
	PackHash            string               `json:"pack_hash"`
}

// ComputePackHash reduces files to the SHA-256 of the ascending
// lexicographic concatenation of "path:sha256\n" triples. Go's map
// iteration order is randomized, so this function sorts explicitly rather
// than relying on range order.
func ComputePackHash(files map[string]FileEntry) string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte(":"))
		h.Write([]byte(files[k].SHA256))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyIntegrity reports whether m.PackHash matches a fresh reduction over
// m.Files.
func (m *Manifest) VerifyIntegrity() bool {
	return m.PackHash == ComputePackHash(m.Files)
}

// MarshalCanonicalJSON renders m as pretty-printed JSON with two-space
// indentation. encoding/json already emits map[string]T keys in sorted
// order, so Files is canonical without a custom marshaler — the ordered
// mapping requirement (§9) is satisfied by the standard library's
// documented behavior, not by an extra sort step here.
func (m *Manifest) MarshalCanonicalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, errors.Wrap(err, "encoding manifest")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Parse decodes manifest JSON bytes.
func Parse(b []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrap(err, "parsing manifest json")
	}
	if m.Files == nil {
		m.Files = map[string]FileEntry{}
	}
	return &m, nil
}
