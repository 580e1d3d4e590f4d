package common

import (
	"fmt"
	"os"
)

const logPrefix = `[goiobroker] `

// Logger represents a minimal levelled logger
type Logger interface {
	// Debugf handles debug level messages
	Debugf(format string, args ...interface{})
	// Infof handles info level messages
	Infof(format string, args ...interface{})
	// Warnf handles warn level messages
	Warnf(format string, args ...interface{})
	// Errorf handles error level messages
	Errorf(format string, args ...interface{})
	// Fatalf handles fatal level messages, and must exit the application
	Fatalf(format string, args ...interface{})
	// Panicf handles panic level messages, and must panic the application
	Panicf(format string, args ...interface{})
}

// StubLogger satisfies the Logger interface, and simply does nothing with
// received messages
type StubLogger struct{}

// Debugf handles debug level messages
func (l *StubLogger) Debugf(format string, args ...interface{}) {}

// Infof handles info level messages
func (l *StubLogger) Infof(format string, args ...interface{}) {}

// Warnf handles warn level messages
func (l *StubLogger) Warnf(format string, args ...interface{}) {}

// Errorf handles error level messages
func (l *StubLogger) Errorf(format string, args ...interface{}) {}

// Fatalf handles fatal level messages, exits the application
func (l *StubLogger) Fatalf(format string, args ...interface{}) {
	os.Exit(1)
}

// Panicf handles panic level messages, and panics the application
func (l *StubLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// prefixer prepends its prefix to every format, and hands the message to the
// logger returned by target.  Resolving the target per message lets tagged
// loggers created at init follow later SetLogger calls.
type prefixer struct {
	prefix string
	target func() Logger
}

func (l *prefixer) Debugf(format string, args ...interface{}) {
	l.target().Debugf(l.prefix+format, args...)
}

func (l *prefixer) Infof(format string, args ...interface{}) {
	l.target().Infof(l.prefix+format, args...)
}

func (l *prefixer) Warnf(format string, args ...interface{}) {
	l.target().Warnf(l.prefix+format, args...)
}

func (l *prefixer) Errorf(format string, args ...interface{}) {
	l.target().Errorf(l.prefix+format, args...)
}

func (l *prefixer) Fatalf(format string, args ...interface{}) {
	l.target().Fatalf(l.prefix+format, args...)
}

func (l *prefixer) Panicf(format string, args ...interface{}) {
	l.target().Panicf(l.prefix+format, args...)
}

var (
	// Log holds the global logger used by goiobroker, can be set via
	// SetLogger() in the goiobroker package
	Log Logger
)

func init() {
	SetLogger(new(StubLogger))
}

// SetLogger wraps the supplied logger with a prefix to denote goiobroker logs
func SetLogger(logger Logger) {
	Log = &prefixer{
		prefix: logPrefix,
		target: func() Logger { return logger },
	}
}

// Tagged returns a logger writing to Log, with tag added to every message
func Tagged(tag string) Logger {
	return &prefixer{
		prefix: `[` + tag + `] `,
		target: func() Logger { return Log },
	}
}
