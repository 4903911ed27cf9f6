// Package logging owns the process log sink: a console writer and an optional
// log file, each with its own minimum level.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options control level filtering and the file format.
type Options struct {
	ConsoleLevel zerolog.Level
	FileLevel    zerolog.Level
	JSON         bool // file format; the console is always human readable
}

// DefaultOptions keeps the console quiet and records everything in the file.
func DefaultOptions() Options {
	return Options{ConsoleLevel: zerolog.WarnLevel, FileLevel: zerolog.DebugLevel}
}

// Sink is the opened log. The zero value is not usable; use Open or Nop.
type Sink struct {
	Logger zerolog.Logger
	path   string
	file   *os.File
}

// Nop returns a sink that discards everything. It stands in until the
// response file is known.
func Nop() *Sink {
	return &Sink{Logger: zerolog.Nop()}
}

// Open creates (or truncates) the log file at path and returns a sink writing
// to it and to console. If the file cannot be opened the returned sink is
// console-only and the error says why; the sink is usable either way.
func Open(path string, console io.Writer, opts Options) (*Sink, error) {
	cw := zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	writers := []io.Writer{levelFilter{w: cw, min: opts.ConsoleLevel}}
	minLevel := opts.ConsoleLevel

	s := &Sink{}
	f, openErr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if openErr == nil {
		s.file = f
		s.path = path
		var fw io.Writer = f
		if !opts.JSON {
			fw = zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.RFC3339}
		}
		writers = append(writers, levelFilter{w: fw, min: opts.FileLevel})
		if opts.FileLevel < minLevel {
			minLevel = opts.FileLevel
		}
	} else {
		openErr = fmt.Errorf("open log file: %w", openErr)
	}

	s.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(minLevel).
		With().Timestamp().Logger()
	return s, openErr
}

// Path returns the log file path, or "" for a console-only sink.
func (s *Sink) Path() string { return s.path }

// Close flushes and closes the log file. Safe to call more than once and on a
// nil sink.
func (s *Sink) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.Logger = zerolog.Nop()
	return err
}

// ParseLevel accepts zerolog level names; empty means fallback.
func ParseLevel(name string, fallback zerolog.Level) (zerolog.Level, error) {
	if name == "" {
		return fallback, nil
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return fallback, err
	}
	return lvl, nil
}

// levelFilter drops events below min for a single destination of a
// MultiLevelWriter.
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f levelFilter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}
