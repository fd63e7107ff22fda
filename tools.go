//go:build tools

// Package batepapo pins the mockgen version used by the go:generate
// directives in repositories, runtime/workers, contract and
// infrastructure/search.
package batepapo

import (
	_ "go.uber.org/mock/mockgen"
)
