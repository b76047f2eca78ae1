// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package replicate implements the three repository replication modes
// built on top of pkg/dpack: a local pack/unfurl clone, a transportable
// rootball seed, and a zip-sourced fresh-repo extraction.
package replicate

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/denotum/dpack/internal/clock"
	"github.com/denotum/dpack/pkg/dpack"
	"github.com/denotum/dpack/pkg/policy"
	"github.com/denotum/dpack/pkg/receipt"
	"github.com/denotum/dpack/pkg/seed"
)

// scratchDir creates a uniquely named scratch directory under os.TempDir,
// tagged with prefix, so concurrent replication runs never collide even if
// the caller's os.TempDir is shared (see §5: independent working
// directories per concurrent operation).
func scratchDir(prefix string) (string, error) {
	dir := filepath.Join(os.TempDir(), prefix+uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating scratch directory %s", dir)
	}
	return dir, nil
}

const (
	ModeLocalClone     = "R0_LOCAL_CLONE"
	ModeRootballSeed   = "R1_ROOTBALL_SEED"
	ModeZipToFreshRepo = "R2_ZIP_TO_FRESH_REPO_V1"
)

// ErrGateFailed indicates an underlying pack/unfurl step did not pass,
// so replication stops immediately (fail-closed) rather than producing a
// partially replicated target.
var ErrGateFailed = errors.New("replication gate failed")

// Options configures a replication run. A zero Options uses policy.Default()
// and a real wall clock.
type Options struct {
	Policy policy.Policy
	Clock  clock.Clock
}

func (o Options) dpackOptions() dpack.Options {
	return dpack.Options{Policy: o.Policy, Clock: o.Clock}
}

func (o Options) clock() clock.Clock {
	if o.Clock == nil {
		return clock.Real{}
	}
	return o.Clock
}

// Local implements R0_LOCAL_CLONE: pack repoRoot into a temporary DPACK,
// unfurl it into targetDir, then verify shape and content equivalence
// between repoRoot and targetDir. The replication receipt is written to
// targetDir/replication_receipt.json.
func Local(repoRoot, targetDir string, sd *seed.Seed, opts Options) (*receipt.ReplicationReceipt, error) {
	var gates []receipt.GateResult
	gates = append(gates, receipt.GateResult{Gate: "RG0_POLICY", Status: receipt.Pass, Detail: "policy applied"})
	gates = append(gates, receipt.GateResult{Gate: "RG1_SEED_BINDING", Status: receipt.Pass, Detail: "seed_fp=" + shortHash(sd.Fingerprint)})

	packTemp, err := scratchDir("dpack-replicate-local-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(packTemp)

	packReceipt, err := dpack.Pack(repoRoot, packTemp, sd, opts.dpackOptions())
	if err != nil {
		return nil, errors.Wrap(err, "packing source repository")
	}
	if !packReceipt.Passed {
		return nil, errors.Wrapf(ErrGateFailed, "pack")
	}
	sourcePackHash := packReceipt.PackHash

	unfurlReceipt, err := dpack.Unfurl(packTemp, targetDir, sd, opts.dpackOptions())
	if err != nil {
		return nil, errors.Wrap(err, "unfurling into target directory")
	}
	if !unfurlReceipt.Passed {
		return nil, errors.Wrapf(ErrGateFailed, "unfurl")
	}

	shapeEq, shapeDiff, err := dpack.ShapeEquivalence(repoRoot, targetDir)
	if err != nil {
		return nil, errors.Wrap(err, "verifying shape equivalence")
	}
	gates = append(gates, receipt.GateResult{
		Gate: "RG2_SHAPE_EQUIVALENCE", Status: statusFor(shapeEq), Detail: shapeDetail(shapeEq, shapeDiff),
	})
	if !shapeEq {
		r := receipt.NewReplication(opts.clock(), ModeLocalClone, sd.Fingerprint, sourcePackHash, "", gates)
		return r, errors.Wrapf(ErrGateFailed, "RG2_SHAPE_EQUIVALENCE: %s", shapeDiff)
	}

	verifyTemp, err := scratchDir("dpack-replicate-verify-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(verifyTemp)

	targetPackReceipt, err := dpack.Pack(targetDir, verifyTemp, sd, opts.dpackOptions())
	if err != nil {
		return nil, errors.Wrap(err, "re-packing target for content equivalence")
	}
	targetPackHash := targetPackReceipt.PackHash

	contentEq := sourcePackHash == targetPackHash
	gates = append(gates, receipt.GateResult{
		Gate: "RG3_CONTENT_EQUIVALENCE", Status: statusFor(contentEq), Detail: contentDetail(contentEq),
	})
	gates = append(gates, receipt.GateResult{Gate: "RG5_RECEIPT", Status: receipt.Pass, Detail: "replication receipt emitted"})

	r := receipt.NewReplication(opts.clock(), ModeLocalClone, sd.Fingerprint, sourcePackHash, targetPackHash, gates)
	if err := r.WriteJSON(filepath.Join(targetDir, "replication_receipt.json")); err != nil {
		return nil, errors.Wrap(err, "writing replication_receipt.json")
	}
	return r, nil
}

// Rootball implements R1_ROOTBALL_SEED: pack repoRoot directly into
// outputDir as a transportable DPACK rootball.
func Rootball(repoRoot, outputDir string, sd *seed.Seed, opts Options) (*receipt.ReplicationReceipt, error) {
	var gates []receipt.GateResult
	gates = append(gates, receipt.GateResult{Gate: "RG0_POLICY", Status: receipt.Pass, Detail: "policy applied"})
	gates = append(gates, receipt.GateResult{Gate: "RG1_SEED_BINDING", Status: receipt.Pass, Detail: "seed_fp=" + shortHash(sd.Fingerprint)})

	packReceipt, err := dpack.Pack(repoRoot, outputDir, sd, opts.dpackOptions())
	if err != nil {
		return nil, errors.Wrap(err, "packing rootball")
	}
	if !packReceipt.Passed {
		return nil, errors.Wrapf(ErrGateFailed, "pack")
	}

	gates = append(gates, receipt.GateResult{
		Gate: "RG5_RECEIPT", Status: receipt.Pass, Detail: "rootball created at " + outputDir,
	})

	r := receipt.NewReplication(opts.clock(), ModeRootballSeed, sd.Fingerprint, packReceipt.PackHash, "", gates)
	if err := r.WriteJSON(filepath.Join(outputDir, "replication_receipt.json")); err != nil {
		return nil, errors.Wrap(err, "writing replication_receipt.json")
	}
	return r, nil
}

// ZipToFreshRepoV1 implements R2_ZIP_TO_FRESH_REPO_V1: pack sourceDir,
// unfurl it into outDir as a clean extraction, and optionally scaffold a
// minimal .git/HEAD + refs/heads layout. v1 never merges with existing
// history at outDir.
func ZipToFreshRepoV1(sourceDir, outDir string, sd *seed.Seed, initGit bool, opts Options) (*receipt.ReplicationReceipt, error) {
	var gates []receipt.GateResult
	gates = append(gates, receipt.GateResult{Gate: "RG0_POLICY", Status: receipt.Pass, Detail: "policy applied"})
	gates = append(gates, receipt.GateResult{Gate: "RG1_SEED_BINDING", Status: receipt.Pass, Detail: "seed_fp=" + shortHash(sd.Fingerprint)})

	packTemp, err := scratchDir("dpack-replicate-zip2repo-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(packTemp)

	packReceipt, err := dpack.Pack(sourceDir, packTemp, sd, opts.dpackOptions())
	if err != nil {
		return nil, errors.Wrap(err, "packing source")
	}
	if !packReceipt.Passed {
		return nil, errors.Wrapf(ErrGateFailed, "pack")
	}

	unfurlReceipt, err := dpack.Unfurl(packTemp, outDir, sd, opts.dpackOptions())
	if err != nil {
		return nil, errors.Wrap(err, "unfurling into fresh repo")
	}
	if !unfurlReceipt.Passed {
		return nil, errors.Wrapf(ErrGateFailed, "unfurl")
	}

	shapeEq, shapeDiff, err := dpack.ShapeEquivalence(sourceDir, outDir)
	if err != nil {
		return nil, errors.Wrap(err, "verifying shape equivalence")
	}
	gates = append(gates, receipt.GateResult{
		Gate: "RG2_SHAPE_EQUIVALENCE", Status: statusFor(shapeEq), Detail: shapeDetail(shapeEq, shapeDiff),
	})
	if !shapeEq {
		r := receipt.NewReplication(opts.clock(), ModeZipToFreshRepo, sd.Fingerprint, packReceipt.PackHash, "", gates)
		return r, errors.Wrapf(ErrGateFailed, "RG2_SHAPE_EQUIVALENCE: %s", shapeDiff)
	}

	if initGit {
		if err := scaffoldGitDir(outDir); err != nil {
			return nil, err
		}
	}

	gates = append(gates, receipt.GateResult{Gate: "RG5_RECEIPT", Status: receipt.Pass, Detail: "replication receipt emitted"})

	r := receipt.NewReplication(opts.clock(), ModeZipToFreshRepo, sd.Fingerprint, packReceipt.PackHash, "", gates)
	if err := r.WriteJSON(filepath.Join(outDir, "replication_receipt.json")); err != nil {
		return nil, errors.Wrap(err, "writing replication_receipt.json")
	}
	return r, nil
}

// scaffoldGitDir creates the minimal .git/HEAD + refs/heads layout a fresh
// extraction needs to look like a git worktree, without shelling out to a
// real git binary.
func scaffoldGitDir(outDir string) error {
	gitDir := filepath.Join(outDir, ".git")
	if _, err := os.Stat(gitDir); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o755); err != nil {
		return errors.Wrap(err, "creating .git/refs/heads")
	}
	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return errors.Wrap(err, "writing .git/HEAD")
	}
	return nil
}

func statusFor(ok bool) receipt.GateStatus {
	if ok {
		return receipt.Pass
	}
	return receipt.Fail
}

// shapeDetail reports the equivalence verdict and, on mismatch, the
// go-cmp diff between the two sorted path->hash maps so the gate detail is
// self-sufficient for diagnosing which paths diverged.
func shapeDetail(ok bool, diff string) string {
	if ok {
		return "tree shapes identical"
	}
	return "tree shape mismatch: " + diff
}

func contentDetail(ok bool) string {
	if ok {
		return "content hashes identical"
	}
	return "content hash mismatch"
}

func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:16]
}
