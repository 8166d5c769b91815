// Package logging holds the process-wide zerolog logger.
package logging

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the shared logger. The CLI adjusts its level from --log-level.
var Logger zerolog.Logger

func init() {
	Logger = New(os.Stderr)
}

// New returns a console logger writing to f. Color is only used when f is a
// terminal.
func New(f *os.File) zerolog.Logger {
	noColor := !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// ParseLevel maps a --log-level value to a zerolog level. "err" is accepted
// for "error". Unknown values report false.
func ParseLevel(s string) (zerolog.Level, bool) {
	if s == "err" {
		s = "error"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, false
	}
	return level, true
}

func With() zerolog.Context { return Logger.With() }
func Trace() *zerolog.Event { return Logger.Trace() }
func Debug() *zerolog.Event { return Logger.Debug() }
func Info() *zerolog.Event  { return Logger.Info() }
func Warn() *zerolog.Event  { return Logger.Warn() }
func Error() *zerolog.Event { return Logger.Error() }
func Fatal() *zerolog.Event { return Logger.Fatal() }
