// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/denotum/dpack/pkg/dpack"
)

var unfurlCmd = &cobra.Command{
	Use:   "unfurl --pack-dir <dir> --target <dir> [--seed <path>]",
	Short: "Restore a verified DPACK's files into a target directory",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if *packDir == "" || *targetDir == "" {
			log.Fatal("--pack-dir and --target are required")
		}
		sd, err := resolveSeed(*seedPath, *packDir)
		if err != nil {
			failClosed(errors.Wrap(err, "resolving seed"))
		}
		r, err := dpack.Unfurl(*packDir, *targetDir, sd, dpack.Options{})
		if err != nil {
			failClosed(err)
		}
		if !r.Passed {
			failClosed(errors.New("unfurl receipt did not pass"))
		}
		log.Printf("unfurled %s into %s", *packDir, *targetDir)
	},
}
