// Package logging appends orchestration activity to a per-project log file
// so a failed expansion or a forfeited metadata harvest can be inspected
// after the invocation finished.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger writes timestamped lines to .snapforge/logs/snapforge.log. A nil
// Logger is valid and drops everything, so callers never guard their calls.
type Logger struct {
	file  *os.File
	debug bool
}

// New creates (or reuses) the log file under the given workspace directory.
func New(workspaceDir string) (*Logger, error) {
	logDir := filepath.Join(workspaceDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "snapforge.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{file: f}, nil
}

// SetDebug toggles Debugf output.
func (l *Logger) SetDebug(on bool) {
	if l != nil {
		l.debug = on
	}
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Printf writes a single timestamped line to the log file.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.file == nil {
		return
	}
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintf(l.file, "[%s] %s\n", time.Now().Format(time.RFC3339), line)
}

// Debugf writes a line only when debug output is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.debug {
		return
	}
	l.Printf("debug: "+format, args...)
}
