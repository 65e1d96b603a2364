// Package logger writes one JSON object per line to stderr. Values under keys
// that look like email fields, and email addresses embedded anywhere else, are
// masked before they are written. Passwords and tokens are never written.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Level is the minimum severity a logger writes.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps a config string to a Level, falling back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// sink is the state shared by a logger and every child made with With.
type sink struct {
	mu        sync.Mutex
	out       io.Writer
	level     Level
	redactPII bool
}

// Logger writes structured entries. The zero value is not usable; start from
// the package functions or With.
type Logger struct {
	sink   *sink
	fields []any
}

var defaultLogger = &Logger{sink: &sink{out: os.Stderr, level: INFO, redactPII: true}}

// SetLevel changes the minimum level of the default logger and its children.
func SetLevel(l Level) {
	s := defaultLogger.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = l
}

// SetRedactPII turns email masking on or off. Secrets stay masked either way.
func SetRedactPII(r bool) {
	s := defaultLogger.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redactPII = r
}

// SetOutput redirects the default logger, mostly for tests.
func SetOutput(w io.Writer) {
	s := defaultLogger.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = w
}

// With returns a child of the default logger that adds fields to every entry.
func With(fields ...any) *Logger { return defaultLogger.With(fields...) }

func Debug(msg string, fields ...any) { defaultLogger.log(DEBUG, msg, fields) }

func Info(msg string, fields ...any) { defaultLogger.log(INFO, msg, fields) }

func Warn(msg string, fields ...any) { defaultLogger.log(WARN, msg, fields) }

func Error(msg string, fields ...any) { defaultLogger.log(ERROR, msg, fields) }

// With returns a child that writes to the same sink with extra fields.
func (l *Logger) With(fields ...any) *Logger {
	merged := make([]any, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{sink: l.sink, fields: merged}
}

func (l *Logger) Debug(msg string, fields ...any) { l.log(DEBUG, msg, fields) }

func (l *Logger) Info(msg string, fields ...any) { l.log(INFO, msg, fields) }

func (l *Logger) Warn(msg string, fields ...any) { l.log(WARN, msg, fields) }

func (l *Logger) Error(msg string, fields ...any) { l.log(ERROR, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []any) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < s.level {
		return
	}

	entry := map[string]any{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"level": level.String(),
		"msg":   msg,
	}
	addFields(entry, l.fields, s.redactPII)
	addFields(entry, fields, s.redactPII)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	fmt.Fprintln(s.out, string(data))
}

// addFields copies key/value pairs into entry. A trailing key without a value
// is dropped.
func addFields(entry map[string]any, fields []any, redactPII bool) {
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		val := fmt.Sprintf("%v", fields[i+1])
		entry[key] = mask(key, val, redactPII)
	}
}

var secretKeys = []string{"password", "token", "secret", "authorization"}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func mask(key, val string, redactPII bool) string {
	lower := strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(lower, s) {
			return "[redacted]"
		}
	}
	if !redactPII {
		return val
	}
	if strings.Contains(lower, "email") {
		return RedactEmail(val)
	}
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}

// RedactEmail masks the local part of an address:
// "john.doe@example.com" becomes "jo***@example.com".
func RedactEmail(email string) string {
	name, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(name) > 2 {
		return name[:2] + "***@" + domain
	}
	return "***@" + domain
}
