// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/denotum/dpack/pkg/dpack"
)

var packCmd = &cobra.Command{
	Use:   "pack --repo <dir> --out <dir> [--seed <path>] [--policy <path>]",
	Short: "Pack a repository into a DPACK directory",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if *repoRoot == "" || *outputDir == "" {
			log.Fatal("--repo and --out are required")
		}
		pol, err := loadPolicy(*policyPath)
		if err != nil {
			failClosed(err)
		}
		sd, err := resolveSeed(*seedPath, *repoRoot)
		if err != nil {
			failClosed(errors.Wrap(err, "resolving seed"))
		}
		r, err := dpack.Pack(*repoRoot, *outputDir, sd, dpack.Options{Policy: pol})
		if err != nil {
			failClosed(err)
		}
		if !r.Passed {
			failClosed(errors.New("pack receipt did not pass"))
		}
		log.Printf("packed %s into %s (pack_hash=%s)", *repoRoot, *outputDir, r.PackHash)
	},
}
