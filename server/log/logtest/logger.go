// Package logtest implements loggers for tests.
package logtest

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/jacobpatterson1549/number-race/server/log"
)

// DiscardLogger is a Logger that writes nothing.
var DiscardLogger log.Logger = discardLogger{}

// discardLogger drops all messages.
type discardLogger struct{}

// Printf implements the log.Logger interface.
func (discardLogger) Printf(format string, v ...interface{}) {
	// NOOP
}

// Logger records messages so tests can check what was logged.  It is safe for concurrent use.
type Logger struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

var _ log.Logger = new(Logger)

// NewLogger creates an empty Logger.
func NewLogger() *Logger {
	return new(Logger)
}

// Printf implements the log.Logger interface.  Each message is written on its own line.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(&l.buf, format, v...)
	l.buf.WriteByte('\n')
}

// String returns everything that has been logged.
func (l *Logger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// Empty determines if nothing has been logged.
func (l *Logger) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Len() == 0
}

// Contains determines if any logged text contains the substring.
func (l *Logger) Contains(substr string) bool {
	return strings.Contains(l.String(), substr)
}
