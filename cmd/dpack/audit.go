// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/denotum/dpack/pkg/dpack"
)

var auditCmd = &cobra.Command{
	Use:   "audit --pack-dir <dir> [--seed <path>] [--json]",
	Short: "Re-verify a DPACK directory and print its receipt",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if *packDir == "" {
			log.Fatal("--pack-dir is required")
		}
		sd, err := resolveSeed(*seedPath, *packDir)
		if err != nil {
			failClosed(errors.Wrap(err, "resolving seed"))
		}
		r, err := dpack.Verify(*packDir, sd, dpack.Options{})
		if err != nil {
			failClosed(err)
		}
		if *jsonOut {
			b, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				failClosed(errors.Wrap(err, "marshaling receipt"))
			}
			fmt.Println(string(b))
		} else {
			printReceiptTable(r.Operation, r.Passed, r.Gates)
		}
		if !r.Passed {
			failClosed(errors.New("audit receipt did not pass"))
		}
	},
}
