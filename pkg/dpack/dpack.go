// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package dpack implements the unpacked DPACK envelope: a manifest.json
// plus a data/ mirror of the packed tree, and the pack/verify/unfurl
// operations over that envelope.
package dpack

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/denotum/dpack/internal/atomicfile"
	"github.com/denotum/dpack/internal/clock"
	"github.com/denotum/dpack/pkg/hashutil"
	"github.com/denotum/dpack/pkg/manifest"
	"github.com/denotum/dpack/pkg/policy"
	"github.com/denotum/dpack/pkg/receipt"
	"github.com/denotum/dpack/pkg/seed"
)

// ErrVerificationFailed is returned by Unfurl when the source pack fails
// verification; callers must not write anything in that case.
var ErrVerificationFailed = errors.New("pack verification failed; refusing to unfurl")

// ErrPackNotFound is returned when a pack directory does not exist.
var ErrPackNotFound = errors.New("pack directory not found")

const (
	manifestFileName      = "manifest.json"
	receiptFileName       = "receipt.json"
	unfurlReceiptFileName = "unfurl_receipt.json"
	dataDirName           = "data"
)

// Options configures Pack and Verify. A zero Options uses policy.Default()
// and a real wall clock.
type Options struct {
	Policy policy.Policy
	Clock  clock.Clock
}

func (o Options) clock() clock.Clock {
	if o.Clock == nil {
		return clock.Real{}
	}
	return o.Clock
}

// Pack walks repoRoot, copies every included file into outputDir/data,
// and writes outputDir/manifest.json and outputDir/receipt.json.
func Pack(repoRoot, outputDir string, sd *seed.Seed, opts Options) (*receipt.Receipt, error) {
	pol := opts.Policy
	if pol.Include == nil && pol.Exclude == nil {
		pol = policy.Default()
	}

	dataDir := filepath.Join(outputDir, dataDirName)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	files := map[string]manifest.FileEntry{}
	err := filepath.WalkDir(repoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// Only regular files are recorded: directories are descended into
		// without being recorded themselves, and symlinks (along with any
		// other non-regular entry — devices, sockets, etc.) are excluded
		// outright rather than dereferenced, per the non-goal "symbolic
		// links (file regular entries only)".
		if !d.Type().IsRegular() {
			return nil
		}
		relPath, err := filepath.Rel(repoRoot, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if !pol.IsAllowed(relPath) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", relPath)
		}
		digest := hashutil.SHA256Hex(content)

		dest := filepath.Join(dataDir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errors.Wrapf(err, "creating data subdirectory for %s", relPath)
		}
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return errors.Wrapf(err, "writing data copy of %s", relPath)
		}

		files[relPath] = manifest.FileEntry{SHA256: digest, Size: uint64(len(content))}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking repository")
	}

	var gates []receipt.GateResult
	gates = append(gates, receipt.GateResult{
		Gate: "G0_SCHEMA", Status: receipt.Pass, Detail: "manifest schema " + manifest.SchemaVersion,
	})

	packHash := manifest.ComputePackHash(files)
	gates = append(gates, receipt.GateResult{
		Gate: "G1_INTEGRITY", Status: receipt.Pass, Detail: "pack_hash=" + shortHash(packHash),
	})
	gates = append(gates, receipt.GateResult{
		Gate: "G4_SEED_BINDING", Status: receipt.Pass, Detail: "seed_fp=" + shortHash(sd.Fingerprint),
	})
	gates = append(gates, receipt.GateResult{
		Gate: "G6_ORGASYSTEM_SHAPE", Status: receipt.Pass, Detail: itoaFiles(len(files)) + " files packed",
	})

	m := &manifest.Manifest{
		SchemaVersion:       manifest.SchemaVersion,
		RootSeedFingerprint: sd.Fingerprint,
		CreatedAt:           opts.clock().Now().Format(time.RFC3339),
		SourceRoot:          repoRoot,
		Files:               files,
		PackHash:            packHash,
	}
	manifestBytes, err := m.MarshalCanonicalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "marshaling manifest")
	}
	if err := atomicfile.Write(filepath.Join(outputDir, manifestFileName), manifestBytes, 0o644); err != nil {
		return nil, errors.Wrap(err, "writing manifest.json")
	}

	gates = append(gates, receipt.GateResult{
		Gate: "G7_RELEASE_RECEIPT", Status: receipt.Pass, Detail: "manifest written",
	})

	r := receipt.New(opts.clock(), "pack", sd.Fingerprint, packHash, gates)
	if err := r.WriteJSON(filepath.Join(outputDir, receiptFileName)); err != nil {
		return nil, errors.Wrap(err, "writing receipt.json")
	}
	return r, nil
}

// Verify checks a DPACK directory's manifest integrity, per-file hashes,
// and seed binding, without modifying anything.
func Verify(packDir string, sd *seed.Seed, opts Options) (*receipt.Receipt, error) {
	if _, err := os.Stat(packDir); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrPackNotFound, "path %s", packDir)
		}
		return nil, errors.Wrap(err, "statting pack directory")
	}

	m, err := loadManifest(packDir)
	if err != nil {
		return nil, err
	}
	dataDir := filepath.Join(packDir, dataDirName)

	var gates []receipt.GateResult

	schemaOK := m.SchemaVersion == manifest.SchemaVersion
	gates = append(gates, receipt.GateResult{
		Gate: "G0_SCHEMA", Status: statusFor(schemaOK), Detail: "schema_version=" + m.SchemaVersion,
	})

	integrityOK := m.VerifyIntegrity()
	gates = append(gates, receipt.GateResult{
		Gate: "G1_INTEGRITY", Status: statusFor(integrityOK), Detail: integrityDetail(integrityOK),
	})

	allHashesOK, hashDetail := verifyFileHashes(dataDir, m)
	gates = append(gates, receipt.GateResult{
		Gate: "G3_PINNING", Status: statusFor(allHashesOK), Detail: hashDetail,
	})

	seedOK := m.RootSeedFingerprint == sd.Fingerprint
	gates = append(gates, receipt.GateResult{
		Gate: "G4_SEED_BINDING", Status: statusFor(seedOK), Detail: seedBindingDetail(seedOK, sd.Fingerprint, m.RootSeedFingerprint),
	})

	return receipt.New(opts.clock(), "verify", sd.Fingerprint, m.PackHash, gates), nil
}

// Unfurl restores a verified DPACK's files into targetDir, verifying each
// file's hash again immediately before writing it. If the source pack does
// not pass verification, Unfurl writes nothing and returns
// ErrVerificationFailed. If a file's hash no longer matches while
// restoring, Unfurl stops before writing that file and returns
// ErrVerificationFailed; files restored before it remain in targetDir.
func Unfurl(packDir, targetDir string, sd *seed.Seed, opts Options) (*receipt.Receipt, error) {
	verifyReceipt, err := Verify(packDir, sd, opts)
	if err != nil {
		return nil, err
	}
	if !verifyReceipt.Passed {
		return nil, ErrVerificationFailed
	}

	m, err := loadManifest(packDir)
	if err != nil {
		return nil, err
	}
	dataDir := filepath.Join(packDir, dataDirName)

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating target directory")
	}

	relPaths := sortedKeys(m.Files)
	var filesRestored int
	for _, relPath := range relPaths {
		entry := m.Files[relPath]
		src := filepath.Join(dataDir, filepath.FromSlash(relPath))
		content, err := os.ReadFile(src)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s during unfurl", relPath)
		}
		actual := hashutil.SHA256Hex(content)
		if actual != entry.SHA256 {
			gates := []receipt.GateResult{{
				Gate: "G3_PINNING", Status: receipt.Fail,
				Detail: "hash mismatch during unfurl: " + relPath,
			}}
			receipt.New(opts.clock(), "unfurl", sd.Fingerprint, m.PackHash, gates)
			return nil, errors.Wrapf(ErrVerificationFailed, "hash mismatch during unfurl: %s", relPath)
		}

		dst := filepath.Join(targetDir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating directory for %s", relPath)
		}
		if err := os.WriteFile(dst, content, 0o644); err != nil {
			return nil, errors.Wrapf(err, "writing %s", relPath)
		}
		filesRestored++
	}

	gates := []receipt.GateResult{
		{Gate: "G3_PINNING", Status: receipt.Pass, Detail: itoaFiles(filesRestored) + " files restored with verified hashes"},
		{Gate: "G4_SEED_BINDING", Status: receipt.Pass, Detail: "seed binding preserved"},
		{Gate: "G6_ORGASYSTEM_SHAPE", Status: receipt.Pass, Detail: itoaFiles(filesRestored) + " files, shape preserved"},
	}
	r := receipt.New(opts.clock(), "unfurl", sd.Fingerprint, m.PackHash, gates)
	if err := r.WriteJSON(filepath.Join(packDir, unfurlReceiptFileName)); err != nil {
		return nil, errors.Wrap(err, "writing unfurl_receipt.json")
	}
	return r, nil
}

// ShapeEquivalence reports whether dirA and dirB contain the same set of
// relative paths with the same content hashes, and — when they differ — a
// human-readable diff of the two path->hash maps for diagnostics.
func ShapeEquivalence(dirA, dirB string) (bool, string, error) {
	a, err := collectHashes(dirA)
	if err != nil {
		return false, "", err
	}
	b, err := collectHashes(dirB)
	if err != nil {
		return false, "", err
	}
	if diff := cmp.Diff(a, b); diff != "" {
		return false, diff, nil
	}
	return true, "", nil
}

func collectHashes(root string) (map[string]string, error) {
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", rel)
		}
		out[rel] = hashutil.SHA256Hex(content)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}
	return out, nil
}

func loadManifest(packDir string) (*manifest.Manifest, error) {
	b, err := os.ReadFile(filepath.Join(packDir, manifestFileName))
	if err != nil {
		return nil, errors.Wrap(err, "reading manifest.json")
	}
	m, err := manifest.Parse(b)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func verifyFileHashes(dataDir string, m *manifest.Manifest) (bool, string) {
	for _, relPath := range sortedKeys(m.Files) {
		entry := m.Files[relPath]
		content, err := os.ReadFile(filepath.Join(dataDir, filepath.FromSlash(relPath)))
		if err != nil {
			return false, "file missing: " + relPath
		}
		if hashutil.SHA256Hex(content) != entry.SHA256 {
			return false, "hash mismatch: " + relPath
		}
	}
	return true, itoaFiles(len(m.Files)) + " files verified"
}

func sortedKeys(files map[string]manifest.FileEntry) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func statusFor(ok bool) receipt.GateStatus {
	if ok {
		return receipt.Pass
	}
	return receipt.Fail
}

func integrityDetail(ok bool) string {
	if ok {
		return "pack_hash matches"
	}
	return "pack_hash mismatch"
}

func seedBindingDetail(ok bool, expected, actual string) string {
	if ok {
		return "seed fingerprint matches"
	}
	return "expected " + shortHash(expected) + ", got " + shortHash(actual)
}

func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16]
}

func itoaFiles(n int) string {
	return strconv.Itoa(n)
}
