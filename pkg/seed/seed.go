// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package seed loads the opaque Denotum 2I seed bytes that anchor every
// DPACK/CPACK artifact's identity. The core never interprets the seed
// structurally; it treats it as a blob whose SHA-256 is the root fingerprint.
package seed

import (
	"os"
	"path/filepath"

	"github.com/denotum/dpack/pkg/hashutil"
	"github.com/pkg/errors"
)

// RelativePath is the canonical location of the seed file under a workspace
// root, per the external seed-resolution default.
const RelativePath = "spec/seed/denotum.seed.2i.yaml"

// ErrNotFound indicates no seed file exists at the resolved path.
var ErrNotFound = errors.New("seed file not found")

// ErrFingerprintMissing indicates a caller supplied no fingerprint to bind
// against (nil or empty string).
var ErrFingerprintMissing = errors.New("seed fingerprint missing in artifact")

// Seed is the loaded seed: its raw bytes, the path it was read from, and its
// SHA-256 hex fingerprint. It is immutable once loaded.
type Seed struct {
	Bytes       []byte
	Fingerprint string
	SourcePath  string
}

// Load reads the seed file at path and computes its fingerprint.
func Load(path string) (*Seed, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "path %s", path)
		}
		return nil, errors.Wrap(err, "stat seed file")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading seed file")
	}
	return &Seed{
		Bytes:       b,
		Fingerprint: hashutil.SHA256Hex(b),
		SourcePath:  path,
	}, nil
}

// LoadFromWorkspace resolves and loads the seed from the canonical location
// relative to workspaceRoot.
func LoadFromWorkspace(workspaceRoot string) (*Seed, error) {
	return Load(filepath.Join(workspaceRoot, RelativePath))
}

// DefaultPath implements the external resolution default of §6: the seed is
// first looked for at <root>/spec/seed/denotum.seed.2i.yaml, and if that is
// absent, under the DPACK data/ mirror at the same relative location. It
// returns the first candidate that exists, or the primary candidate if
// neither does (so callers get a stable, reportable path in their error).
func DefaultPath(root string) string {
	primary := filepath.Join(root, RelativePath)
	if _, err := os.Stat(primary); err == nil {
		return primary
	}
	mirrored := filepath.Join(root, "data", RelativePath)
	if _, err := os.Stat(mirrored); err == nil {
		return mirrored
	}
	return primary
}

// VerifyFingerprint reports an error unless expected equals this seed's
// fingerprint exactly (case-sensitive), per gate G4_SEED_BINDING semantics.
func (s *Seed) VerifyFingerprint(expected string) error {
	if s.Fingerprint != expected {
		return errors.Errorf("seed fingerprint mismatch: expected %s, got %s", expected, s.Fingerprint)
	}
	return nil
}

// AssertBinding requires fingerprint to be present and to match this seed.
// An empty or absent fingerprint is rejected even though it would otherwise
// never equal a real fingerprint, so that the failure mode is reported as
// "missing" rather than "mismatch".
func (s *Seed) AssertBinding(fingerprint string) error {
	if fingerprint == "" {
		return ErrFingerprintMissing
	}
	return s.VerifyFingerprint(fingerprint)
}
