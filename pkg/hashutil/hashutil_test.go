// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package hashutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSHA256HexKnownValue(t *testing.T) {
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde",
		SHA256Hex([]byte("hello world")))
}

func TestSHA256HexDeterministic(t *testing.T) {
	require.Equal(t, SHA256Hex([]byte("a")), SHA256Hex([]byte("a")))
}

func TestSHA256File(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(p, []byte("file content for hash"), 0o644))

	digest, size, err := SHA256File(p)
	require.NoError(t, err)
	require.Equal(t, uint64(len("file content for hash")), size)
	require.Equal(t, SHA256Hex([]byte("file content for hash")), digest)
}

func TestIsHex64(t *testing.T) {
	require.True(t, IsHex64(SHA256Hex([]byte("x"))))
	require.False(t, IsHex64("not-hex"))
	require.False(t, IsHex64("abc"))
	require.False(t, IsHex64(""))
}
