// Package logging provides the structured-logging facade used across
// libjournal's internal packages, following the same zerolog-based
// pattern as the rest of the pack: a Config supplied per Logger (no
// process-wide state), a component-tagged child logger per subsystem,
// and key/value fields
// rather than formatted strings.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level names the configurable log levels.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration, supplied once via OpenOptions.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Logger is a thin wrapper over zerolog.Logger carrying the
// key/value-pair call convention libjournal's internal packages use.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger from cfg. A zero Config (no Level, no Output,
// console form) discards everything, so a handle opened without an
// explicit logging Config stays silent by default.
func New(cfg Config) Logger {
	if cfg == (Config{}) {
		return NoOp()
	}

	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var zl zerolog.Logger
	if cfg.JSONOutput {
		zl = zerolog.New(output).Level(level).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).Level(level).With().Timestamp().Logger()
	}
	return Logger{zl: zl}
}

// NoOp returns a Logger that discards everything — the default for a
// handle opened without an explicit logging Config.
func NoOp() Logger {
	return Logger{zl: zerolog.New(io.Discard)}
}

// WithComponent returns a child logger tagging every event with
// component, e.g. "journal", "txn", "autosync", "recovery", "lock".
func (l Logger) WithComponent(component string) Logger {
	return Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l Logger) Debug(msg string, kv ...interface{}) { l.emit(l.zl.Debug(), msg, kv) }
func (l Logger) Info(msg string, kv ...interface{})  { l.emit(l.zl.Info(), msg, kv) }
func (l Logger) Warn(msg string, kv ...interface{})  { l.emit(l.zl.Warn(), msg, kv) }
func (l Logger) Error(msg string, kv ...interface{}) { l.emit(l.zl.Error(), msg, kv) }

func (l Logger) emit(ev *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		if err, ok := kv[i+1].(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
