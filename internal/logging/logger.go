// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging wraps charmbracelet/log behind a small Logger type so
// call sites depend on this package rather than the logging library
// directly. Components take a *Logger via constructor injection; there
// is no package-level global logger.
package logging

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Config controls where and how a Logger writes.
type Config struct {
	Output io.Writer
	Level  charmlog.Level
	Prefix string
}

// DefaultConfig writes info-and-above to stderr with no prefix.
func DefaultConfig() Config {
	return Config{
		Output: os.Stderr,
		Level:  charmlog.InfoLevel,
	}
}

// Logger is the structured logger used throughout wfpctl.
type Logger struct {
	inner *charmlog.Logger
}

// New creates a Logger from cfg.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	l := charmlog.NewWithOptions(cfg.Output, charmlog.Options{
		Level:  cfg.Level,
		Prefix: cfg.Prefix,
	})
	return &Logger{inner: l}
}

// With returns a Logger with the given key/value pairs attached to every
// subsequent message.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{inner: l.inner.With(keyvals...)}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.inner.Debug(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.inner.Info(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.inner.Warn(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.inner.Error(msg, keyvals...) }

// SetLevel changes the minimum level the Logger emits.
func (l *Logger) SetLevel(level charmlog.Level) { l.inner.SetLevel(level) }
