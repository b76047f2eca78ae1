// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cpack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denotum/dpack/pkg/hashutil"
	"github.com/denotum/dpack/pkg/manifest"
)

func makeTestDpack(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "README.md"), []byte("# Test"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "src", "main.go"), []byte("package main"), 0o644))

	files := map[string]manifest.FileEntry{
		"README.md":   {SHA256: hashutil.SHA256Hex([]byte("# Test")), Size: 6},
		"src/main.go": {SHA256: hashutil.SHA256Hex([]byte("package main")), Size: 12},
	}
	m := &manifest.Manifest{
		SchemaVersion:       manifest.SchemaVersion,
		RootSeedFingerprint: "test_fp",
		CreatedAt:           "2026-01-01T00:00:00Z",
		SourceRoot:          "/tmp/test",
		Files:               files,
		PackHash:            manifest.ComputePackHash(files),
	}
	b, err := m.MarshalCanonicalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), b, 0o644))
	return dir
}

func TestCompressCreatesFile(t *testing.T) {
	dpackDir := makeTestDpack(t)
	cpackPath := filepath.Join(t.TempDir(), "test.cpack")

	hash, err := Compress(dpackDir, cpackPath)
	require.NoError(t, err)
	require.Len(t, hash, 64)
	require.FileExists(t, cpackPath)

	data, err := os.ReadFile(cpackPath)
	require.NoError(t, err)
	require.Greater(t, len(data), HeaderSize)
	require.Equal(t, "CPCK", string(data[0:4]))
}

func TestCompressDeterministic(t *testing.T) {
	dpackDir := makeTestDpack(t)
	p1 := filepath.Join(t.TempDir(), "a.cpack")
	p2 := filepath.Join(t.TempDir(), "b.cpack")

	_, err := Compress(dpackDir, p1)
	require.NoError(t, err)
	_, err = Compress(dpackDir, p2)
	require.NoError(t, err)

	d1, err := os.ReadFile(p1)
	require.NoError(t, err)
	d2, err := os.ReadFile(p2)
	require.NoError(t, err)
	require.Equal(t, d1, d2, "compress must be deterministic")
}

func TestRoundTripCompressDecompress(t *testing.T) {
	dpackDir := makeTestDpack(t)
	cpackPath := filepath.Join(t.TempDir(), "test.cpack")
	_, err := Compress(dpackDir, cpackPath)
	require.NoError(t, err)

	restoredDir := t.TempDir()
	_, err = Decompress(cpackPath, restoredDir)
	require.NoError(t, err)

	origManifest, err := os.ReadFile(filepath.Join(dpackDir, "manifest.json"))
	require.NoError(t, err)
	restManifest, err := os.ReadFile(filepath.Join(restoredDir, "manifest.json"))
	require.NoError(t, err)

	orig, err := manifest.Parse(origManifest)
	require.NoError(t, err)
	rest, err := manifest.Parse(restManifest)
	require.NoError(t, err)
	require.Equal(t, orig.PackHash, rest.PackHash)
	require.Len(t, rest.Files, len(orig.Files))

	content, err := os.ReadFile(filepath.Join(restoredDir, "data", "README.md"))
	require.NoError(t, err)
	require.Equal(t, "# Test", string(content))

	content, err = os.ReadFile(filepath.Join(restoredDir, "data", "src", "main.go"))
	require.NoError(t, err)
	require.Equal(t, "package main", string(content))
}

func TestDecompressDetectsCorruption(t *testing.T) {
	dpackDir := makeTestDpack(t)
	cpackPath := filepath.Join(t.TempDir(), "test.cpack")
	_, err := Compress(dpackDir, cpackPath)
	require.NoError(t, err)

	data, err := os.ReadFile(cpackPath)
	require.NoError(t, err)
	require.Greater(t, len(data), 50)
	data[50] ^= 0xFF
	require.NoError(t, os.WriteFile(cpackPath, data, 0o644))

	restoredDir := t.TempDir()
	_, err = Decompress(cpackPath, restoredDir)
	require.Error(t, err)
}
