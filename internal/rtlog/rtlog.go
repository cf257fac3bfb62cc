// Package rtlog wraps a package-level zerolog.Logger for cold-path
// diagnostics: decoder recovery, registry overrides, archive rotation.
// Nothing on the per-sample bit loop ever touches this package — logging
// a value there would dominate the cost of the call it's meant to
// describe.
package rtlog

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
	With().Timestamp().Logger().Level(zerolog.WarnLevel)

// SetLevel adjusts the minimum level rtlog emits; callers that want
// debug-level entity/collection diagnostics during development call this
// once at startup.
func SetLevel(level zerolog.Level) {
	logger = logger.Level(level)
}

// Warn logs a cold-path warning, e.g. a decoder recovering from a
// malformed trailing byte before returning an error.
func Warn() *zerolog.Event { return logger.Warn() }

// Debug logs a cold-path diagnostic, e.g. which max_used_bits registry
// generation a decode used.
func Debug() *zerolog.Event { return logger.Debug() }
