package tui

import (
	"sync"

	"github.com/mwantia/navigator/log"
)

var (
	debugLog = log.Discard()
	debugMu  sync.Mutex
)

// SetLogger routes the browser debug output to logger. The terminal is
// owned by the browser, so logger must not write to it.
func SetLogger(logger *log.Logger) {
	debugMu.Lock()
	defer debugMu.Unlock()

	if logger != nil {
		debugLog = logger
	}
}

// DebugLog writes a debug message of the browser
func DebugLog(format string, args ...any) {
	debugMu.Lock()
	logger := debugLog
	debugMu.Unlock()

	logger.Debug(format, args...)
}
