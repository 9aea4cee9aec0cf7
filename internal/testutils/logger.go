// Package testutils holds helpers shared across package tests.
package testutils

import (
	"testing"

	"github.com/rs/zerolog"
)

// Logger returns a zerolog logger that writes through the test harness when
// tests run verbose and is silent otherwise.
func Logger(t testing.TB) zerolog.Logger {
	t.Helper()

	if testing.Verbose() {
		return zerolog.New(zerolog.NewTestWriter(t))
	}

	return zerolog.Nop()
}
