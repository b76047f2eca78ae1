// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/denotum/dpack/pkg/hashutil"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(p, []byte("test seed content"), 0o644))

	s, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, []byte("test seed content"), s.Bytes)
	require.Len(t, s.Fingerprint, 64)
	require.Equal(t, hashutil.SHA256Hex([]byte("test seed content")), s.Fingerprint)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadFromWorkspace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "spec", "seed"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec", "seed", "denotum.seed.2i.yaml"), []byte("workspace seed"), 0o644))

	s, err := LoadFromWorkspace(dir)
	require.NoError(t, err)
	require.Equal(t, []byte("workspace seed"), s.Bytes)
}

func TestDefaultPathFallsBackToDataMirror(t *testing.T) {
	dir := t.TempDir()
	mirrored := filepath.Join(dir, "data", "spec", "seed")
	require.NoError(t, os.MkdirAll(mirrored, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mirrored, "denotum.seed.2i.yaml"), []byte("mirrored"), 0o644))

	require.Equal(t, filepath.Join(dir, "data", RelativePath), DefaultPath(dir))
}

func TestVerifyFingerprint(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(p, []byte("content"), 0o644))
	s, err := Load(p)
	require.NoError(t, err)

	require.NoError(t, s.VerifyFingerprint(s.Fingerprint))
	require.Error(t, s.VerifyFingerprint("0000000000000000000000000000000000000000000000000000000000000000"))
}

func TestAssertBinding(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(p, []byte("content"), 0o644))
	s, err := Load(p)
	require.NoError(t, err)

	require.ErrorIs(t, s.AssertBinding(""), ErrFingerprintMissing)
	require.NoError(t, s.AssertBinding(s.Fingerprint))
}
