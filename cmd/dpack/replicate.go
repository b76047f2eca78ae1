// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/denotum/dpack/pkg/receipt"
	"github.com/denotum/dpack/pkg/replicate"
)

var replicateCmd = &cobra.Command{
	Use:   "replicate {local|rootball|zip2repo-v1} --repo <dir> (--target <dir> | --out <dir> for rootball) [--seed <path>] [--policy <path>] [--init-git]",
	Short: "Replicate a repository snapshot under one of the supported modes",
	Args:  cobra.ExactArgs(1),
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
		opts := replicate.Options{Policy: pol}

		var r *receipt.ReplicationReceipt
		switch args[0] {
		case "local":
			if *targetDir == "" {
				log.Fatal("--target is required for mode local")
			}
			r, err = replicate.Local(*repoRoot, *targetDir, sd, opts)
		case "rootball":
			if *outputDir == "" {
				log.Fatal("--out is required for mode rootball")
			}
			r, err = replicate.Rootball(*repoRoot, *outputDir, sd, opts)
		case "zip2repo-v1":
			if *targetDir == "" {
				log.Fatal("--target is required for mode zip2repo-v1")
			}
			r, err = replicate.ZipToFreshRepoV1(*repoRoot, *targetDir, sd, *initGit, opts)
		default:
			log.Fatalf("unknown replicate mode %q (want local, rootball, or zip2repo-v1)", args[0])
		}
		if err != nil {
			failClosed(err)
		}

		printReceiptTable(r.Operation, r.Passed, r.Gates)
		if !r.Passed {
			failClosed(errors.New("replication receipt did not pass"))
		}
	},
}
