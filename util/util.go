package util

import "log"

// Logging is a crude switch that affects what Logf does.
//
// When Logging is true, Logf calls log.Printf.  Otherwise Logf does
// nothing at all.
var Logging = false

// Logf calls log.Printf if Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	log.Printf(format, args...)
}

// Warnf calls log.Printf (with a "warning" prefix) regardless of
// Logging.  For things that shouldn't be silent but also shouldn't be
// fatal.
func Warnf(format string, args ...interface{}) {
	log.Printf("warning: "+format, args...)
}
