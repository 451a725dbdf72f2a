// Package usbsaslog provides the logging helpers every worker and the
// orchestrator use. It wraps logrus the way the teacher's fs.Debugf /
// fs.Logf / fs.Errorf helpers wrap their own logging engine: every call
// takes a "subject" first argument so a line is always attributable to a
// pipeline stage, even when several workers interleave output.
package usbsaslog

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var std = logrus.New()

func init() {
	std.SetOutput(os.Stderr)
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	std.SetLevel(logrus.InfoLevel)
}

// SetLevel adjusts verbosity; "debug" is typically enabled by --verbose
// on the worker's CLI.
func SetLevel(debug bool) {
	if debug {
		std.SetLevel(logrus.DebugLevel)
		return
	}
	std.SetLevel(logrus.InfoLevel)
}

func entry(subject any) *logrus.Entry {
	if subject == nil {
		return logrus.NewEntry(std)
	}
	return std.WithField("subject", fmt.Sprint(subject))
}

// Debugf logs a debug-level line attributed to subject (typically a
// wkind.Kind or a session ID).
func Debugf(subject any, format string, args ...any) {
	entry(subject).Debugf(format, args...)
}

// Logf logs an info-level line attributed to subject.
func Logf(subject any, format string, args ...any) {
	entry(subject).Infof(format, args...)
}

// Errorf logs an error-level line attributed to subject. It does not
// itself return an error; callers construct a usbsaserr.Error separately.
func Errorf(subject any, format string, args ...any) {
	entry(subject).Errorf(format, args...)
}

// Fatalf logs and exits the process with status 1. Reserved for
// confinement failures and other conditions that predate channel use,
// per spec.md §7.
func Fatalf(subject any, format string, args ...any) {
	entry(subject).Fatalf(format, args...)
}
