package main

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btclog"
	"github.com/lightningnetwork/lnd/build"
	"github.com/lightningnetwork/lnd/signal"
)

const (
	// Subsystem defines the logging code for the service itself.
	Subsystem = "CNTR"

	httpSubsystem     = "HTTP"
	snapshotSubsystem = "SNAP"
)

var (
	logWriter = build.NewRotatingLogWriter()

	// Loggers stay disabled until SetupLoggers is called.
	log     = btclog.Disabled
	httpLog = btclog.Disabled
	snapLog = btclog.Disabled
)

// SetupLoggers initializes all package-global logger variables.
func SetupLoggers(root *build.RotatingLogWriter, interceptor signal.Interceptor) {
	genLogger := genSubLogger(root, interceptor)

	logWriter = root
	log = addSubLogger(root, Subsystem, genLogger)
	httpLog = addSubLogger(root, httpSubsystem, genLogger)
	snapLog = addSubLogger(root, snapshotSubsystem, genLogger)
}

func addSubLogger(root *build.RotatingLogWriter, subsystem string,
	genLogger func(string) btclog.Logger) btclog.Logger {

	logger := build.NewSubLogger(subsystem, genLogger)
	root.RegisterSubLogger(subsystem, logger)
	return logger
}

// genSubLogger creates sub loggers that request a shutdown on critical
// errors.
func genSubLogger(root *build.RotatingLogWriter,
	interceptor signal.Interceptor) func(string) btclog.Logger {

	return func(tag string) btclog.Logger {
		return root.GenSubLogger(tag, interceptor.RequestShutdown)
	}
}

// debugWriter turns every line written to it into a debug log entry. It
// feeds the access log and the http.Server error log.
type debugWriter struct {
	log btclog.Logger
}

func (w debugWriter) Write(p []byte) (int, error) {
	w.log.Debugf("%s", bytes.TrimRight(p, "\n"))
	return len(p), nil
}

// recoveryLogger adapts a btclog.Logger to the logger interface of the
// panic recovery middleware.
type recoveryLogger struct {
	log btclog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Errorf("%s", fmt.Sprint(v...))
}
