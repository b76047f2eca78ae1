// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package receipt implements the audit trail emitted by every pack,
// verify, unfurl, and replicate operation: a list of named gate results
// and their aggregated pass/fail verdict.
package receipt

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/denotum/dpack/internal/atomicfile"
	"github.com/denotum/dpack/internal/clock"
)

// GateStatus is a closed tagged enum: a gate either Passed, Failed, or was
// Skipped.
type GateStatus string

const (
	Pass GateStatus = "Pass"
	Fail GateStatus = "Fail"
	Skip GateStatus = "Skip"
)

// GateResult is the outcome of one named invariant check.
type GateResult struct {
	Gate   string     `json:"gate"`
	Status GateStatus `json:"status"`
	Detail string     `json:"detail"`
}

// Receipt aggregates the gate results for a single pack/verify/unfurl/audit
// operation.
type Receipt struct {
	Operation           string       `json:"operation"`
	RunID               string       `json:"run_id"`
	Timestamp           string       `json:"timestamp"`
	RootSeedFingerprint string       `json:"root_2i_seed_fingerprint"`
	PackHash            string       `json:"pack_hash,omitempty"`
	Gates               []GateResult `json:"gates"`
	Passed              bool         `json:"passed"`
}

// New builds a Receipt, deriving Passed as the conjunction of every gate's
// status being something other than Fail. clk supplies the timestamp so
// tests can pin it. RunID is a fresh random identifier distinguishing this
// operation's receipt from any other, including a repeated run over the
// same inputs; it is never an input to pack_hash or any other content hash.
func New(clk clock.Clock, operation, seedFingerprint, packHash string, gates []GateResult) *Receipt {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Receipt{
		Operation:           operation,
		RunID:               uuid.New().String(),
		Timestamp:           clk.Now().Format(time.RFC3339),
		RootSeedFingerprint: seedFingerprint,
		PackHash:            packHash,
		Gates:               gates,
		Passed:              allPass(gates),
	}
}

func allPass(gates []GateResult) bool {
	for _, g := range gates {
		if g.Status == Fail {
			return false
		}
	}
	return true
}

// WriteJSON pretty-prints r and writes it atomically to path.
func (r *Receipt) WriteJSON(path string) error {
	b, err := marshalIndent(r)
	if err != nil {
		return errors.Wrap(err, "marshaling receipt")
	}
	return atomicfile.Write(path, b, 0o644)
}

// ReplicationReceipt is the receipt shape emitted by pkg/replicate's R0/R1/R2
// modes: it additionally names the replication mode and both the source and
// (when applicable) target pack_hash, so RG3_CONTENT_EQUIVALENCE is
// directly inspectable without re-deriving it from the gate detail strings.
type ReplicationReceipt struct {
	Operation           string       `json:"operation"`
	Mode                string       `json:"mode"`
	RunID               string       `json:"run_id"`
	Timestamp           string       `json:"timestamp"`
	RootSeedFingerprint string       `json:"root_2i_seed_fingerprint"`
	SourcePackHash      string       `json:"source_pack_hash,omitempty"`
	TargetPackHash      string       `json:"target_pack_hash,omitempty"`
	Gates               []GateResult `json:"gates"`
	Passed              bool         `json:"passed"`
}

// NewReplication builds a ReplicationReceipt the same way New builds a
// Receipt.
func NewReplication(clk clock.Clock, mode, seedFingerprint, sourcePackHash, targetPackHash string, gates []GateResult) *ReplicationReceipt {
	if clk == nil {
		clk = clock.Real{}
	}
	return &ReplicationReceipt{
		Operation:           "replicate",
		Mode:                mode,
		RunID:               uuid.New().String(),
		Timestamp:           clk.Now().Format(time.RFC3339),
		RootSeedFingerprint: seedFingerprint,
		SourcePackHash:      sourcePackHash,
		TargetPackHash:      targetPackHash,
		Gates:               gates,
		Passed:              allPass(gates),
	}
}

// WriteJSON pretty-prints r and writes it atomically to path.
func (r *ReplicationReceipt) WriteJSON(path string) error {
	b, err := marshalIndent(r)
	if err != nil {
		return errors.Wrap(err, "marshaling replication receipt")
	}
	return atomicfile.Write(path, b, 0o644)
}
