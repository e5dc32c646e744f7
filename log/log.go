// Package log is the ansi-colored leveled logger shared by every pickcheck
// package. Callers import it under a name (pclog in the engine and cache,
// log in cmd/pickcheck).
package log

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/starkandwayne/goutils/ansi"
)

// Level controls which calls actually print.
type Level int32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var (
	current  = int32(LevelInfo)
	colorize = isatty.IsTerminal(os.Stderr.Fd())
	mu       sync.Mutex
)

// SetLevel changes the global log level. Safe to call concurrently.
func SetLevel(l Level) { atomic.StoreInt32(&current, int32(l)) }

// DebugOn mirrors graft's package-level toggle for ad-hoc debug sessions.
func DebugOn(on bool) {
	if on {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelInfo)
	}
}

// Colorize forces (or disables) ansi output regardless of tty detection,
// for tests that assert on log text.
func Colorize(on bool) { colorize = on }

func enabled(l Level) bool { return Level(atomic.LoadInt32(&current)) >= l }

func emit(color string, prefix string, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if colorize {
		fmt.Fprintln(os.Stderr, ansi.Sprintf("@%s{%s}%s", color, prefix, msg))
	} else {
		fmt.Fprintf(os.Stderr, "%s%s\n", prefix, msg)
	}
}

// TRACE logs the finest-grained pick-by-pick detail: one line per dispatcher
// decision. Off by default even when DEBUG is on.
func TRACE(format string, args ...interface{}) {
	if enabled(LevelTrace) {
		emit("b", "[TRACE] ", format, args...)
	}
}

// DEBUG logs dispatcher/shrinker/jar decision points.
func DEBUG(format string, args ...interface{}) {
	if enabled(LevelDebug) {
		emit("c", "[DEBUG] ", format, args...)
	}
}

// INFO logs driver-level progress (batch run summaries, shrink results).
func INFO(format string, args ...interface{}) {
	if enabled(LevelInfo) {
		emit("g", "[INFO]  ", format, args...)
	}
}

// WARN logs recoverable anomalies (elided tracking heuristics, config
// fallbacks).
func WARN(format string, args ...interface{}) {
	if enabled(LevelWarn) {
		emit("y", "[WARN]  ", format, args...)
	}
}

// ERROR logs fatal-but-caught conditions.
func ERROR(format string, args ...interface{}) {
	if enabled(LevelError) {
		emit("r", "[ERROR] ", format, args...)
	}
}
