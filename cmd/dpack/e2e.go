// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/denotum/dpack/pkg/pipeline"
)

var e2eCmd = &cobra.Command{
	Use:   "e2e --repo <dir> [--seed <path>] [--policy <path>] [--work-dir <dir>]",
	Short: "Run pack, compress, decompress, and verify as a single round-trip check",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if *repoRoot == "" {
			log.Fatal("--repo is required")
		}
		pol, err := loadPolicy(*policyPath)
		if err != nil {
			failClosed(err)
		}
		sd, err := resolveSeed(*seedPath, *repoRoot)
		if err != nil {
			failClosed(errors.Wrap(err, "resolving seed"))
		}

		work := *workDir
		if work == "" {
			tmp, err := os.MkdirTemp("", "dpack-e2e-")
			if err != nil {
				failClosed(errors.Wrap(err, "creating scratch directory"))
			}
			defer os.RemoveAll(tmp)
			work = tmp
		}

		report, err := pipeline.Run(*repoRoot, work, sd, pipeline.Options{Policy: pol})
		if err != nil {
			failClosed(err)
		}
		log.Printf("e2e passed=%v original_hash=%s restored_hash=%s", report.Passed, report.OriginalHash, report.RestoredHash)
		if !report.Passed {
			os.Exit(1)
		}
	},
}
