// Package debug provides conditional debug logging for tt.
//
// Set TT_DEBUG to any non-empty value to enable it:
//
//	TT_DEBUG=1 tt labels.json
//
// Messages go to stderr with a [TT_DEBUG] prefix and microsecond timestamps.
// When disabled every function returns immediately.
package debug

import (
	"io"
	"log"
	"os"
	"time"
)

const prefix = "[TT_DEBUG] "

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TT_DEBUG") != "" {
		SetEnabled(true)
	}
}

// Enabled returns whether debug logging is on.
func Enabled() bool {
	return enabled
}

// SetEnabled turns debug logging on or off, creating the stderr logger on first use.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. Tests use it to capture log lines.
func SetOutput(w io.Writer) {
	if logger == nil {
		logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
		return
	}
	logger.SetOutput(w)
}

// Log writes a printf-style message.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes "<name> took <d>".
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogIf writes a message only when cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Printf(format, args...)
}

// LogEnterExit logs entry now and exit with elapsed time when the returned func runs:
//
//	defer debug.LogEnterExit("toc.New")()
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	logger.Printf("%s: %T = %+v", name, v, v)
}

// Section logs a header line to group related output.
func Section(name string) {
	if !enabled {
		return
	}
	logger.Printf("=== %s ===", name)
}
