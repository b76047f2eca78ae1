// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/denotum/dpack/pkg/cpack"
)

var compressCmd = &cobra.Command{
	Use:   "compress --pack-dir <dir> --out <file>",
	Short: "Compress a DPACK directory into a CPACK file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if *packDir == "" || *outputDir == "" {
			log.Fatal("--pack-dir and --out are required")
		}
		hash, err := cpack.Compress(*packDir, *outputDir)
		if err != nil {
			failClosed(err)
		}
		log.Printf("compressed %s into %s (payload_sha256=%s)", *packDir, *outputDir, hash)
	},
}

var decompressCmd = &cobra.Command{
	Use:   "decompress --cpack <file> --out <dir>",
	Short: "Decompress a CPACK file into a DPACK directory",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if *cpackPath == "" || *outputDir == "" {
			log.Fatal("--cpack and --out are required")
		}
		hash, err := cpack.Decompress(*cpackPath, *outputDir)
		if err != nil {
			failClosed(err)
		}
		log.Printf("decompressed %s into %s (payload_sha256=%s)", *cpackPath, *outputDir, hash)
	},
}
