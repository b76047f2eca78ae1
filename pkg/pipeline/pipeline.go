// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package pipeline composes the full pack -> compress -> decompress ->
// verify -> compare -> re-compress end-to-end driver described for the
// "e2e" operation: a single call that exercises every stage of the core
// and reports exactly which numbered step failed.
package pipeline

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/denotum/dpack/internal/clock"
	"github.com/denotum/dpack/pkg/cpack"
	"github.com/denotum/dpack/pkg/dpack"
	"github.com/denotum/dpack/pkg/policy"
	"github.com/denotum/dpack/pkg/seed"
)

// Step identifies which stage of the pipeline a Report describes or a
// failure occurred at.
type Step int

const (
	StepPack Step = iota + 1
	StepCompress
	StepDecompress
	StepVerifyRestored
	StepCompareHash
	StepRecompress
	StepCompareBytes
)

func (s Step) String() string {
	switch s {
	case StepPack:
		return "1:pack"
	case StepCompress:
		return "2:compress"
	case StepDecompress:
		return "3:decompress"
	case StepVerifyRestored:
		return "4:verify_restored"
	case StepCompareHash:
		return "5:compare_pack_hash"
	case StepRecompress:
		return "6:recompress"
	case StepCompareBytes:
		return "7:compare_cpack_bytes"
	default:
		return "0:unknown"
	}
}

// Report is the outcome of a full Run: which step (if any) failed, and the
// pack hashes observed at each comparison point.
type Report struct {
	FailedStep   Step
	OriginalHash string
	RestoredHash string
	Passed       bool
}

// Options configures Run. A zero Options uses policy.Default() and a real
// wall clock.
type Options struct {
	Policy policy.Policy
	Clock  clock.Clock
}

func (o Options) dpackOptions() dpack.Options {
	return dpack.Options{Policy: o.Policy, Clock: o.Clock}
}

// Run drives repoRoot through pack, compress, decompress, verify-the-restored-DPACK,
// compare-pack_hash-to-original, and a second compress-and-compare-bytes pass,
// all under workDir (which the caller owns and is responsible for cleaning up).
// It returns as soon as any step fails, naming that step in the returned error.
func Run(repoRoot, workDir string, sd *seed.Seed, opts Options) (*Report, error) {
	packDir := filepath.Join(workDir, "pack")
	cpackPath := filepath.Join(workDir, "original.cpack")
	restoredDir := filepath.Join(workDir, "restored")
	recpackPath := filepath.Join(workDir, "recompressed.cpack")

	packReceipt, err := dpack.Pack(repoRoot, packDir, sd, opts.dpackOptions())
	if err != nil {
		return nil, wrapStep(StepPack, err)
	}
	if !packReceipt.Passed {
		return nil, failStep(StepPack, "pack receipt did not pass")
	}
	originalHash := packReceipt.PackHash

	if _, err := cpack.Compress(packDir, cpackPath); err != nil {
		return nil, wrapStep(StepCompress, err)
	}

	if _, err := cpack.Decompress(cpackPath, restoredDir); err != nil {
		return nil, wrapStep(StepDecompress, err)
	}

	verifyReceipt, err := dpack.Verify(restoredDir, sd, opts.dpackOptions())
	if err != nil {
		return nil, wrapStep(StepVerifyRestored, err)
	}
	if !verifyReceipt.Passed {
		return nil, failStep(StepVerifyRestored, "restored DPACK failed verification")
	}
	restoredHash := verifyReceipt.PackHash

	if restoredHash != originalHash {
		return &Report{FailedStep: StepCompareHash, OriginalHash: originalHash, RestoredHash: restoredHash},
			failStep(StepCompareHash, "restored pack_hash does not match original")
	}

	// Steps 6 and 7: recompress the *original* DPACK a second time, not
	// the restored one, and demand bytewise identity with the first
	// CPACK. The restored DPACK's own determinism is already covered by
	// StepCompareHash above.
	if _, err := cpack.Compress(packDir, recpackPath); err != nil {
		return nil, wrapStep(StepRecompress, err)
	}

	original, err := os.ReadFile(cpackPath)
	if err != nil {
		return nil, wrapStep(StepCompareBytes, err)
	}
	recompressed, err := os.ReadFile(recpackPath)
	if err != nil {
		return nil, wrapStep(StepCompareBytes, err)
	}
	if !bytes.Equal(original, recompressed) {
		return &Report{FailedStep: StepCompareBytes, OriginalHash: originalHash, RestoredHash: restoredHash},
			failStep(StepCompareBytes, "re-compressed CPACK bytes differ from the original")
	}

	return &Report{OriginalHash: originalHash, RestoredHash: restoredHash, Passed: true}, nil
}

func wrapStep(step Step, err error) error {
	return errors.Wrapf(err, "pipeline step %s", step)
}

func failStep(step Step, reason string) error {
	return errors.Errorf("pipeline step %s failed: %s", step, reason)
}
