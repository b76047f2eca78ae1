// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultExcludesGit(t *testing.T) {
	p := Default()
	require.False(t, p.IsAllowed(".git"))
	require.False(t, p.IsAllowed(".git/objects/abc"))
	require.True(t, p.IsAllowed("src/main.go"))
}

func TestStarMatch(t *testing.T) {
	require.True(t, Policy{Include: []string{"*.go"}}.IsAllowed("main.go"))
	require.False(t, Policy{Include: []string{"*.go"}}.IsAllowed("src/main.go"))
}

func TestDoubleStarPrefix(t *testing.T) {
	p := Policy{Include: []string{"**/*.go"}}
	require.True(t, p.IsAllowed("src/main.go"))
	require.True(t, p.IsAllowed("a/b/c/main.go"))
}

func TestDoubleStarSuffix(t *testing.T) {
	p := Policy{Exclude: []string{".git/**"}}
	require.False(t, p.IsAllowed(".git/objects/abc"))
	require.True(t, p.IsAllowed("src/main.go"))
}

func TestIncludeFilter(t *testing.T) {
	p := Policy{Include: []string{"*.go", "go.mod"}}
	require.True(t, p.IsAllowed("main.go"))
	require.True(t, p.IsAllowed("go.mod"))
	require.False(t, p.IsAllowed("README.md"))
}

func TestExcludeWinsOverInclude(t *testing.T) {
	p := Policy{Include: []string{"**/*.go"}, Exclude: []string{"**/vendor/**"}}
	require.False(t, p.IsAllowed("vendor/pkg/main.go"))
	require.True(t, p.IsAllowed("pkg/main.go"))
}

func TestPolicyExclusionEndToEndShape(t *testing.T) {
	p := Policy{Exclude: []string{".git/**", ".git", "*.env"}}
	require.False(t, p.IsAllowed("secret.env"))
	require.True(t, p.IsAllowed("README.md"))
}
