// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pipeline

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
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "src", "main.rs"), []byte("fn main() {}"), 0o644))

	seedDir := filepath.Join(repoDir, "spec", "seed")
	require.NoError(t, os.MkdirAll(seedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "denotum.seed.2i.yaml"), []byte("test seed"), 0o644))

	sd, err := seed.LoadFromWorkspace(repoDir)
	require.NoError(t, err)
	return repoDir, sd
}

func TestRunSucceeds(t *testing.T) {
	repoDir, sd := makeTestRepo(t)
	workDir := t.TempDir()

	report, err := Run(repoDir, workDir, sd, Options{})
	require.NoError(t, err)
	require.True(t, report.Passed)
	require.Equal(t, report.OriginalHash, report.RestoredHash)
	require.Len(t, report.OriginalHash, 64)
}

func TestRunFailsAtPackStepOnMissingRepo(t *testing.T) {
	_, sd := makeTestRepo(t)
	workDir := t.TempDir()

	_, err := Run(filepath.Join(t.TempDir(), "does-not-exist"), workDir, sd, Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), StepPack.String())
}

func TestStepStringNamesAreStable(t *testing.T) {
	require.Equal(t, "1:pack", StepPack.String())
	require.Equal(t, "7:compare_cpack_bytes", StepCompareBytes.String())
}
