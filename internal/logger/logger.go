package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

// LogLevel is a log category that can be switched on independently.
type LogLevel int

const (
	LogLevelQuery LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelQuery:
		return "query"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevels turns level names into a set. Unknown names are ignored.
func ParseLevels(levels []string) map[LogLevel]bool {
	set := make(map[LogLevel]bool)
	for _, level := range levels {
		switch strings.ToLower(strings.TrimSpace(level)) {
		case "query":
			set[LogLevelQuery] = true
		case "info":
			set[LogLevelInfo] = true
		case "warn", "warning":
			set[LogLevelWarn] = true
		case "error":
			set[LogLevelError] = true
		}
	}
	return set
}

// Logger writes timestamped lines for the enabled levels.
type Logger struct {
	mu     sync.Mutex
	levels map[LogLevel]bool
	writer io.Writer
	clk    clock.Clock
}

var defaultLogger = NewLogger(nil, os.Stdout)

// NewLogger builds a logger writing to writer for the given level names.
func NewLogger(levels []string, writer io.Writer) *Logger {
	return &Logger{levels: ParseLevels(levels), writer: writer, clk: clock.New()}
}

// WithClock returns the logger using clk for timestamps.
func (l *Logger) WithClock(clk clock.Clock) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clk = clk
	return l
}

// Enabled reports whether level is switched on.
func (l *Logger) Enabled(level LogLevel) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.levels[level]
}

func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

func GetDefaultLogger() *Logger {
	return defaultLogger
}

func (l *Logger) write(level LogLevel, msg string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.levels[level] {
		return
	}
	ts := l.clk.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(l.writer, "[%s] [%s] %s\n", ts, strings.ToUpper(level.String()), msg)
}

// Query logs a statement sent to the server. args are the template
// arguments it was built from, if any; sensitive-looking ones are redacted.
func (l *Logger) Query(query string, args []any, duration time.Duration) {
	l.write(LogLevelQuery, fmt.Sprintf("%s%s (took %v)", truncate(query), formatArgs(args), duration))
}

func (l *Logger) Info(format string, args ...any) {
	l.write(LogLevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.write(LogLevelWarn, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.write(LogLevelError, fmt.Sprintf(format, args...))
}

const maxLoggedQuery = 2000

func truncate(query string) string {
	if len(query) > maxLoggedQuery {
		return query[:maxLoggedQuery] + "... (truncated)"
	}
	return query
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatArg(a)
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

// formatArg renders one argument for display, redacting sensitive data.
func formatArg(arg any) string {
	switch v := arg.(type) {
	case string:
		if isSensitiveData(v) {
			return "'***REDACTED***'"
		}
		if len(v) > 100 {
			return fmt.Sprintf("'%s...' (truncated)", v[:100])
		}
		return fmt.Sprintf("'%s'", v)
	case []byte:
		if len(v) > 0 {
			return "'***REDACTED***'"
		}
		return "''"
	case nil:
		return "NULL"
	default:
		str := fmt.Sprintf("%v", v)
		if isSensitiveData(str) {
			return "***REDACTED***"
		}
		return str
	}
}

var sensitiveKeywords = []string{
	"password", "passwd", "pwd",
	"secret", "token", "key",
	"api_key", "apikey", "access_token",
	"refresh_token", "auth", "authorization",
	"credential", "private", "private_key",
	"ssn", "social_security", "credit_card",
	"cvv", "pin", "otp",
}

func isSensitiveData(s string) bool {
	s = strings.ToLower(s)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	// JWTs and common API token prefixes
	if len(s) > 20 && (strings.HasPrefix(s, "eyj") ||
		strings.HasPrefix(s, "sk_") ||
		strings.HasPrefix(s, "pk_") ||
		strings.HasPrefix(s, "ghp_") ||
		strings.HasPrefix(s, "xoxb-") ||
		strings.HasPrefix(s, "xoxp-")) {
		return true
	}
	return false
}

func Query(query string, args []any, duration time.Duration) {
	defaultLogger.Query(query, args, duration)
}

func Info(format string, args ...any) {
	defaultLogger.Info(format, args...)
}

func Warn(format string, args ...any) {
	defaultLogger.Warn(format, args...)
}

func Error(format string, args ...any) {
	defaultLogger.Error(format, args...)
}

// SetLogLevels replaces the default logger with one for levels on stdout.
func SetLogLevels(levels []string) {
	defaultLogger = NewLogger(levels, os.Stdout)
}

// SetLogWriter redirects the default logger.
func SetLogWriter(writer io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.writer = writer
}

// FileLogger appends to filename.
func FileLogger(filename string, levels []string) (*Logger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return NewLogger(levels, file), nil
}
