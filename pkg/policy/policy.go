// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package policy implements the inclusion policy that decides which
// relative paths enter the content-addressed set: an exclude list checked
// first, then an optional include allowlist.
package policy

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Policy holds glob allow/deny lists applied against forward-slash relative
// paths.
type Policy struct {
	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// Default returns the policy applied when none is supplied: everything is
// included except .git and its contents.
func Default() Policy {
	return Policy{
		Exclude: []string{".git/**", ".git"},
	}
}

// IsAllowed implements the three-step decision: exclude wins, an empty
// include list means "allow everything not excluded", otherwise the path
// must match some include pattern.
func (p Policy) IsAllowed(relPath string) bool {
	for _, pattern := range p.Exclude {
		if matchGlob(pattern, relPath) {
			return false
		}
	}
	if len(p.Include) == 0 {
		return true
	}
	for _, pattern := range p.Include {
		if matchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// matchGlob implements the minimal dialect of §4.1: exact match, an
// anchored-anywhere "**/X" prefix, a boundary "X/**" suffix, and a single
// bare "*" matching a slash-free run. Patterns that don't fit one of those
// four shapes fall back to doublestar.Match, which additionally understands
// a non-anchored "**", "?", character classes, and brace expansion — a
// superset policy authors may opt into without the core special-casing it.
func matchGlob(pattern, relPath string) bool {
	if pattern == relPath {
		return true
	}
	if suffix, ok := strings.CutPrefix(pattern, "**/"); ok {
		if strings.HasSuffix(relPath, suffix) {
			return true
		}
		for i := range relPath {
			if relPath[i] == '/' && matchGlob(suffix, relPath[i+1:]) {
				return true
			}
		}
		return matchGlob(suffix, relPath)
	}
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return strings.HasPrefix(relPath, prefix) &&
			(len(relPath) == len(prefix) || relPath[len(prefix)] == '/')
	}
	if strings.Count(pattern, "*") == 1 && strings.Contains(pattern, "*") {
		parts := strings.SplitN(pattern, "*", 2)
		pre, post := parts[0], parts[1]
		if len(relPath) < len(pre)+len(post) {
			return false
		}
		mid := relPath[len(pre) : len(relPath)-len(post)]
		return strings.HasPrefix(relPath, pre) && strings.HasSuffix(relPath, post) && !strings.Contains(mid, "/")
	}
	ok, err := doublestar.Match(pattern, relPath)
	return err == nil && ok
}
