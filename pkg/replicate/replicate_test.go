// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package replicate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denotum/dpack/pkg/seed"
)

func makeTestRepo(t *testing.T) (repoDir string, sd *seed.Seed) {
	t.Helper()
	repoDir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "README.md"), []byte("# Test"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "src", "main.go"), []byte("package main"), 0o644))

	seedDir := filepath.Join(repoDir, "spec", "seed")
	require.NoError(t, os.MkdirAll(seedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "denotum.seed.2i.yaml"), []byte("test seed"), 0o644))

	sd, err := seed.LoadFromWorkspace(repoDir)
	require.NoError(t, err)
	return repoDir, sd
}

func TestLocal(t *testing.T) {
	repoDir, sd := makeTestRepo(t)
	targetDir := t.TempDir()

	r, err := Local(repoDir, targetDir, sd, Options{})
	require.NoError(t, err)
	require.True(t, r.Passed)
	require.Equal(t, ModeLocalClone, r.Mode)

	require.FileExists(t, filepath.Join(targetDir, "README.md"))
	require.FileExists(t, filepath.Join(targetDir, "src", "main.go"))
	require.FileExists(t, filepath.Join(targetDir, "replication_receipt.json"))
}

func TestLocalPreservesSeedBinding(t *testing.T) {
	repoDir, sd := makeTestRepo(t)
	targetDir := t.TempDir()

	r, err := Local(repoDir, targetDir, sd, Options{})
	require.NoError(t, err)
	require.Equal(t, sd.Fingerprint, r.RootSeedFingerprint)
}

func TestLocalContentEquivalence(t *testing.T) {
	repoDir, sd := makeTestRepo(t)
	targetDir := t.TempDir()

	r, err := Local(repoDir, targetDir, sd, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, r.SourcePackHash)
	require.NotEmpty(t, r.TargetPackHash)
	require.Equal(t, r.SourcePackHash, r.TargetPackHash)
}

func TestRootball(t *testing.T) {
	repoDir, sd := makeTestRepo(t)
	rootballDir := t.TempDir()

	r, err := Rootball(repoDir, rootballDir, sd, Options{})
	require.NoError(t, err)
	require.True(t, r.Passed)
	require.Equal(t, ModeRootballSeed, r.Mode)
	require.FileExists(t, filepath.Join(rootballDir, "manifest.json"))
	require.DirExists(t, filepath.Join(rootballDir, "data"))
}

func TestZipToFreshRepoV1(t *testing.T) {
	sourceDir, sd := makeTestRepo(t)
	outDir := t.TempDir()

	r, err := ZipToFreshRepoV1(sourceDir, outDir, sd, false, Options{})
	require.NoError(t, err)
	require.True(t, r.Passed)
	require.Equal(t, ModeZipToFreshRepo, r.Mode)
	require.FileExists(t, filepath.Join(outDir, "README.md"))
}

func TestZipToFreshRepoV1WithGitInit(t *testing.T) {
	sourceDir, sd := makeTestRepo(t)
	outDir := t.TempDir()

	r, err := ZipToFreshRepoV1(sourceDir, outDir, sd, true, Options{})
	require.NoError(t, err)
	require.True(t, r.Passed)
	require.FileExists(t, filepath.Join(outDir, ".git", "HEAD"))
	require.DirExists(t, filepath.Join(outDir, ".git", "refs", "heads"))
}
