// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/denotum/dpack/pkg/cpack"
	"github.com/denotum/dpack/pkg/dpack"
)

var verifyCmd = &cobra.Command{
	Use:   "verify (--pack-dir <dir> | --cpack <file>) [--seed <path>]",
	Short: "Verify a DPACK directory or CPACK file's integrity and seed binding",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if *packDir == "" && *cpackPath == "" {
			log.Fatal("one of --pack-dir or --cpack is required")
		}
		if *packDir != "" && *cpackPath != "" {
			log.Fatal("only one of --pack-dir or --cpack may be given")
		}

		dir := *packDir
		if *cpackPath != "" {
			tmp, err := os.MkdirTemp("", "dpack-verify-")
			if err != nil {
				failClosed(errors.Wrap(err, "creating temp directory"))
			}
			defer os.RemoveAll(tmp)
			if _, err := cpack.Decompress(*cpackPath, tmp); err != nil {
				failClosed(err)
			}
			dir = tmp
		}

		sd, err := resolveSeed(*seedPath, dir)
		if err != nil {
			failClosed(errors.Wrap(err, "resolving seed"))
		}
		r, err := dpack.Verify(dir, sd, dpack.Options{})
		if err != nil {
			failClosed(err)
		}
		printReceiptTable(r.Operation, r.Passed, r.Gates)
		if !r.Passed {
			failClosed(errors.New("verify receipt did not pass"))
		}
	},
}
