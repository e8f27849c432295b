// Package hdllog is a thin, level-filtered wrapper around the standard
// library's log.Logger. The retrieved pack never reaches for a structured
// logging library (zap/zerolog/logrus are absent from every go.mod in
// scope) — plain log.Printf, as standardbeagle-lci's indexing/watcher.go
// uses it, is the idiom this package generalizes into something
// --log-level/--log-stream aware.
package hdllog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is a logging severity, ordered so a Logger can filter by
// threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps the CLI's --log-level value to a Level, defaulting to
// LevelInfo on anything unrecognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a level-filtered *log.Logger wrapper, safe for concurrent use
// (the engine logs from multiple goroutines during concurrent builds).
type Logger struct {
	mu       sync.Mutex
	out      *log.Logger
	minLevel Level
}

// New builds a Logger writing to w (typically os.Stderr, or the file
// named by --log-stream), filtering anything below minLevel.
func New(w io.Writer, minLevel Level) *Logger {
	return &Logger{
		out:      log.New(w, "", log.LstdFlags),
		minLevel: minLevel,
	}
}

// Default returns a Logger writing to os.Stderr at LevelInfo, used before
// the CLI has parsed --log-level/--log-stream.
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.minLevel {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }

// SetOutput redirects the logger's destination, used when --log-stream
// names a file opened after the logger was constructed.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetOutput(w)
}

// SetLevel changes the filtering threshold at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}
