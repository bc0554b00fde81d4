package cli

import (
	"fmt"
	"os"
	"strings"
)

// cliLogger writes leveled messages to stderr, keeping stdout clean for
// command output.
type cliLogger struct {
	level int
}

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

func newCLILogger(level string) *cliLogger {
	l := &cliLogger{level: levelInfo}
	switch strings.ToLower(level) {
	case "debug":
		l.level = levelDebug
	case "info":
		l.level = levelInfo
	case "warn", "warning":
		l.level = levelWarn
	case "error":
		l.level = levelError
	}
	return l
}

func (l *cliLogger) logf(level int, prefix, format string, v ...any) {
	if level >= l.level {
		fmt.Fprintf(os.Stderr, prefix+format+"\n", v...)
	}
}

func (l *cliLogger) Debugf(format string, v ...any) { l.logf(levelDebug, "[DEBUG] ", format, v...) }
func (l *cliLogger) Infof(format string, v ...any)  { l.logf(levelInfo, "[INFO] ", format, v...) }
func (l *cliLogger) Warnf(format string, v ...any)  { l.logf(levelWarn, "[WARN] ", format, v...) }
func (l *cliLogger) Errorf(format string, v ...any) { l.logf(levelError, "[ERROR] ", format, v...) }
