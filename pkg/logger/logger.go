// Package logger provides component-tagged structured logging.
//
// Every call names the component that emits it ("telegram", "dispatcher",
// "apiclient", ...) and optionally a set of fields.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var base = newBase(os.Stderr)

func newBase(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           log.InfoLevel,
	})
}

func current() *log.Logger {
	return base
}

// SetLevel changes the minimum level that is written.
func SetLevel(level LogLevel) {
	current().SetLevel(toCharm(level))
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error").
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level: %s", s)
	}
}

// SetFormatter switches output between "text", "json" and "logfmt".
func SetFormatter(name string) error {
	var f log.Formatter
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		f = log.TextFormatter
	case "json":
		f = log.JSONFormatter
	case "logfmt":
		f = log.LogfmtFormatter
	default:
		return fmt.Errorf("unknown log format: %s", name)
	}
	current().SetFormatter(f)
	return nil
}

// SetOutput redirects all log output to w, keeping level and format.
func SetOutput(w io.Writer) {
	current().SetOutput(w)
}

func toCharm(level LogLevel) log.Level {
	switch level {
	case DEBUG:
		return log.DebugLevel
	case WARN:
		return log.WarnLevel
	case ERROR:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func keyvals(component string, fields map[string]interface{}) []interface{} {
	kv := make([]interface{}, 0, 2+len(fields)*2)
	kv = append(kv, "component", component)

	// Stable field order keeps text output diffable.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}

func logAt(level LogLevel, component, message string, fields map[string]interface{}) {
	l := current()
	kv := keyvals(component, fields)
	switch level {
	case DEBUG:
		l.Debug(message, kv...)
	case WARN:
		l.Warn(message, kv...)
	case ERROR:
		l.Error(message, kv...)
	default:
		l.Info(message, kv...)
	}
}

func Debug(message string) { logAt(DEBUG, "", message, nil) }
func Info(message string)  { logAt(INFO, "", message, nil) }
func Warn(message string)  { logAt(WARN, "", message, nil) }
func Error(message string) { logAt(ERROR, "", message, nil) }

func DebugC(component, message string) { logAt(DEBUG, component, message, nil) }
func InfoC(component, message string)  { logAt(INFO, component, message, nil) }
func WarnC(component, message string)  { logAt(WARN, component, message, nil) }
func ErrorC(component, message string) { logAt(ERROR, component, message, nil) }

func DebugCF(component, message string, fields map[string]interface{}) {
	logAt(DEBUG, component, message, fields)
}

func InfoCF(component, message string, fields map[string]interface{}) {
	logAt(INFO, component, message, fields)
}

func WarnCF(component, message string, fields map[string]interface{}) {
	logAt(WARN, component, message, fields)
}

func ErrorCF(component, message string, fields map[string]interface{}) {
	logAt(ERROR, component, message, fields)
}
