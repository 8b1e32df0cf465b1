// Package logger provides structured JSON logging with email redaction.
// Lead email addresses are PII; every field value passes through the
// redaction filter before it reaches the log stream.
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

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger emits one JSON object per entry.
type Logger struct {
	level     Level
	redactPII bool
	mu        sync.Mutex
	out       io.Writer
}

// New creates a logger writing to out at the given minimum level.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{level: level, redactPII: true, out: out}
}

// NewDiscard creates a logger that drops everything, for tests.
func NewDiscard() *Logger {
	return &Logger{level: ERROR + 1, redactPII: true, out: io.Discard}
}

// SetRedactPII toggles email masking. Leave it on outside local debugging.
func (l *Logger) SetRedactPII(r bool) { l.redactPII = r }

// Debug emits a DEBUG-level entry.
func (l *Logger) Debug(msg string, fields map[string]interface{}) { l.log(DEBUG, msg, fields) }

// Info emits an INFO-level entry.
func (l *Logger) Info(msg string, fields map[string]interface{}) { l.log(INFO, msg, fields) }

// Warn emits a WARN-level entry.
func (l *Logger) Warn(msg string, fields map[string]interface{}) { l.log(WARN, msg, fields) }

// Error emits an ERROR-level entry.
func (l *Logger) Error(msg string, fields map[string]interface{}) { l.log(ERROR, msg, fields) }

func (l *Logger) log(level Level, msg string, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	entry := map[string]interface{}{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"level": levelNames[level],
		"msg":   msg,
	}
	for k, v := range fields {
		val := fmt.Sprintf("%v", v)
		if l.redactPII {
			val = redactValue(k, val)
		}
		entry[k] = val
	}

	data, _ := json.Marshal(entry)
	l.mu.Lock()
	fmt.Fprintln(l.out, string(data))
	l.mu.Unlock()
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func redactValue(key, val string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "email") || strings.Contains(key, "recipient") || key == "to" {
		return RedactEmail(val)
	}
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" becomes "jo***@example.com"; local parts of two
// characters or fewer are fully masked.
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}
