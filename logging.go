package av

import (
	"sync"

	elog "github.com/eluv-io/log-go"
)

// Process-wide logging state: one log level, one optional callback slot,
// init-on-first-use (spec.md §5, §9). Grounded directly on
// Eyevinn-avpipe/avcmd/main.go's `log.SetDefault(&log.Config{...})` plus
// avpipe_handler.go's package-level `log` obtained via `elog.Get(...)` —
// every stage in this module logs through the same package-level logger
// instead of each constructing its own.
var (
	logOnce   sync.Once
	logMu     sync.Mutex
	logLevel  = "info"
	logHook   func(level, message string)
	pkgLogger elog.Log
)

func logger() elog.Log {
	logOnce.Do(func() {
		elog.SetDefault(&elog.Config{
			Level:   logLevel,
			Handler: "text",
		})
		pkgLogger = elog.Get("/av-sub014")
	})
	return pkgLogger
}

// SetLogLevel sets the process-wide log level ("debug", "info", "warn",
// "error"). Takes effect on the next call into the library if logging has
// not yet been initialized; otherwise takes effect immediately.
func SetLogLevel(level string) {
	logMu.Lock()
	defer logMu.Unlock()
	logLevel = level
	if pkgLogger != nil {
		pkgLogger.SetLevel(level)
	}
}

// SetLogHook installs a single process-wide callback invoked alongside
// every structured log line this module emits. The callback may be
// invoked from whichever goroutine is driving a stage's blocking libav*
// call (spec.md §9 "the callback is invoked from whichever thread libav*
// runs on"), so implementations must be reentrant or immediately marshal
// to their own serialization point.
func SetLogHook(hook func(level, message string)) {
	logMu.Lock()
	defer logMu.Unlock()
	logHook = hook
}

func logDebug(op string, kv ...interface{}) {
	logger().Debug(op, kv...)
	fireHook("debug", op)
}

func logInfo(op string, kv ...interface{}) {
	logger().Info(op, kv...)
	fireHook("info", op)
}

func logWarn(op string, kv ...interface{}) {
	logger().Warn(op, kv...)
	fireHook("warn", op)
}

func logError(op string, kv ...interface{}) {
	logger().Error(op, kv...)
	fireHook("error", op)
}

func fireHook(level, op string) {
	logMu.Lock()
	hook := logHook
	logMu.Unlock()
	if hook != nil {
		hook(level, op)
	}
}
