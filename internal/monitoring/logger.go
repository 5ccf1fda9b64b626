// Package monitoring carries the process-wide diagnostic logger.
package monitoring

import "log"

// Logf writes a diagnostic line. It defaults to log.Printf; tests and
// embedding programs swap it out via SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. A nil f mutes logging.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
