package hsm

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the opaque sink the dispatcher reports string records to. It is
// the only logging contract the core depends on; any structured or
// unstructured logging library can be adapted to it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards every record. It is the zero value a StateMachine uses
// when no Logger is supplied.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// zerologAdapter adapts a zerolog.Logger to the Logger interface.
type zerologAdapter struct {
	log zerolog.Logger
}

// NewZerologLogger wraps a zerolog.Logger so it can be used as a machine's
// Logger. A nil *zerolog.Logger is not accepted; pass zerolog.Nop() for
// silence or build one with zerolog.New(os.Stderr).
func NewZerologLogger(log zerolog.Logger) Logger {
	return &zerologAdapter{log: log}
}

// NewDefaultLogger returns a zerolog-backed Logger writing leveled, timestamped
// records to stderr — the default a StateMachine falls back to when the
// caller wants visibility without wiring their own sink.
func NewDefaultLogger() Logger {
	return NewZerologLogger(zerolog.New(os.Stderr).With().Timestamp().Logger())
}

func (a *zerologAdapter) Debugf(format string, args ...any) {
	a.log.Debug().Msgf(format, args...)
}

func (a *zerologAdapter) Infof(format string, args ...any) {
	a.log.Info().Msgf(format, args...)
}

func (a *zerologAdapter) Errorf(format string, args ...any) {
	a.log.Error().Msgf(format, args...)
}
