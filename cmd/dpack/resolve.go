// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/denotum/dpack/pkg/policy"
	"github.com/denotum/dpack/pkg/seed"
)

// resolveSeed loads the seed at explicitPath if given, otherwise applies the
// external resolution default against root.
func resolveSeed(explicitPath, root string) (*seed.Seed, error) {
	if explicitPath != "" {
		return seed.Load(explicitPath)
	}
	return seed.Load(seed.DefaultPath(root))
}

// loadPolicy reads a JSON-encoded policy.Policy from path, or returns
// policy.Default() if path is empty.
func loadPolicy(path string) (policy.Policy, error) {
	if path == "" {
		return policy.Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return policy.Policy{}, errors.Wrap(err, "reading policy file")
	}
	var p policy.Policy
	if err := json.Unmarshal(b, &p); err != nil {
		return policy.Policy{}, errors.Wrap(err, "parsing policy file")
	}
	return p, nil
}
