// Package monitoring holds the diagnostic logger shared by the frame
// pipeline and its tools.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf logs a recoverable per-frame problem through Logf.
func Warnf(format string, v ...interface{}) {
	Logf("warning: "+format, v...)
}
