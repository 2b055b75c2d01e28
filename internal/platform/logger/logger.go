// Package logger provides structured logging for the game server.
// Every engine transition should be traceable through this.
package logger

import (
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\x1b[0m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
)

// Logger provides structured logging with context.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a new logger instance writing to stdout/stderr.
// Level prefixes are coloured only when stdout is a terminal.
func NewLogger() *Logger {
	warn, errPrefix := "[DUNGEON-WARN] ", "[DUNGEON-ERROR] "
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		warn = colorYellow + warn + colorReset
		errPrefix = colorRed + errPrefix + colorReset
	}

	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		infoLogger:  log.New(os.Stdout, "[DUNGEON-INFO] ", flags),
		warnLogger:  log.New(os.Stdout, warn, flags),
		errorLogger: log.New(os.Stderr, errPrefix, flags),
	}
}

// NewWriterLogger sends every level to w without colours. Used by tests.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{
		infoLogger:  log.New(w, "[DUNGEON-INFO] ", 0),
		warnLogger:  log.New(w, "[DUNGEON-WARN] ", 0),
		errorLogger: log.New(w, "[DUNGEON-ERROR] ", 0),
	}
}

// NewDiscardLogger drops everything.
func NewDiscardLogger() *Logger {
	return NewWriterLogger(io.Discard)
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Println(msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Println(msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Println(msg)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.errorLogger.Printf(format, args...)
}

// Event logs a specific game event.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.infoLogger.Printf("[EVENT:%s] Actor:%s | %s", eventType, actorID, details)
}
