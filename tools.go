//go:build tools

// Package tools tracks test-only library dependencies so go mod tidy
// retains them.
package tools

import (
	_ "pgregory.net/rapid"
)
