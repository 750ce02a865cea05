// Package testutil holds loggers and the in-memory Overseerr fake used by
// package tests.
package testutil

import (
	"testing"

	"github.com/rs/zerolog"
)

// NewTestLogger writes debug output through t.Log so it only shows for
// failing or verbose runs.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// NopLogger discards everything.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}
