//go:build !debug
// +build !debug

package main

import (
	"go.uber.org/zap"
)

// startDebugLogger is a no-op in production builds.
// See debug.go for the `debug` build tag variant.
func startDebugLogger(logger *zap.Logger) {
}
