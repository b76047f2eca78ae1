// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/denotum/dpack/pkg/receipt"
)

// printReceiptTable renders a short human-readable summary of a receipt's
// gates, one line per gate, followed by the overall verdict.
func printReceiptTable(operation string, passed bool, gates []receipt.GateResult) {
	fmt.Fprintf(os.Stdout, "%s:\n", operation)
	for _, g := range gates {
		fmt.Fprintf(os.Stdout, "  %-24s %-5s %s\n", g.Gate, g.Status, g.Detail)
	}
	verdict := "PASS"
	if !passed {
		verdict = "FAIL"
	}
	fmt.Fprintf(os.Stdout, "overall: %s\n", verdict)
}
