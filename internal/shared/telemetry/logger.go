package telemetry

import (
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/phuslu/log"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout)
)

func newLogger(w io.Writer) *log.Logger {
	return &log.Logger{
		Level:      log.DebugLevel,
		TimeField:  "ts",
		TimeFormat: time.RFC3339,
		Writer:     &log.IOWriter{Writer: w},
	}
}

// SetOutput redirects log lines to w. Intended for tests.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	mu.Lock()
	logger = newLogger(w)
	mu.Unlock()
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	write(l.Info(), msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	write(l.Warn(), msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	write(l.Error(), msg, fields)
}

func write(e *log.Entry, msg string, fields map[string]any) {
	if e == nil {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := fields[k].(type) {
		case error:
			e = e.Str(k, v.Error())
		default:
			e = e.Any(k, v)
		}
	}
	e.Msg(msg)
}
