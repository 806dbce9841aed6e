// Package log is a thin glog facade shared by every package of the module.
package log

import (
	"flag"
	"fmt"

	"github.com/golang/glog"
)

var (
	Infof    = glog.Infof
	Warningf = glog.Warningf
	Errorf   = glog.Errorf
	Fatalf   = glog.Fatalf

	InfoDepth    = glog.InfoDepth
	WarningDepth = glog.WarningDepth
	ErrorDepth   = glog.ErrorDepth

	Flush = glog.Flush
)

// V reports if verbosity level is enabled
func V(level glog.Level) glog.Verbose {
	return glog.V(level)
}

// Init routes glog output to stderr unless a log dir was configured
func Init() {
	if f := flag.Lookup("log_dir"); f != nil && f.Value.String() != "" {
		return
	}
	if f := flag.Lookup("logtostderr"); f != nil {
		f.Value.Set("true")
	}
}

// Logger prefixes log lines with a scope, usually a module name
type Logger struct {
	prefix string
}

// NewLogger creates a *Logger for scope
func NewLogger(scope string) *Logger {
	return &Logger{
		prefix: scope,
	}
}

// Infof formats arguments like fmt.Printf.
func (logger *Logger) Infof(format string, args ...any) {
	InfoDepth(1, logger.annotate(fmt.Sprintf(format, args...)))
}

// Warningf formats arguments like fmt.Printf.
func (logger *Logger) Warningf(format string, args ...any) {
	WarningDepth(1, logger.annotate(fmt.Sprintf(format, args...)))
}

// Errorf formats arguments like fmt.Printf.
func (logger *Logger) Errorf(format string, args ...any) {
	ErrorDepth(1, logger.annotate(fmt.Sprintf(format, args...)))
}

func (logger *Logger) annotate(input string) string {
	return fmt.Sprintf("module=%s %s", logger.prefix, input)
}
