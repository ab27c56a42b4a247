package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/lightningnetwork/lnd/build"
	"github.com/lightningnetwork/lnd/signal"
	"github.com/lightningnetwork/lnd/ticker"
)

func main() {
	err := run()

	// Unwrap our error and check whether help was requested from our flag
	// library. If the error is not wrapped, Unwrap returns nil. It is
	// still safe to check the type of this nil error.
	flagErr, isFlagErr := errors.Unwrap(err).(*flags.Error)
	isHelpErr := isFlagErr && flagErr.Type == flags.ErrHelp

	// If we got a nil error, or help was requested, just exit.
	if err == nil || isHelpErr {
		os.Exit(0)
	}

	// Print any other non-help related errors.
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func run() error {
	// put at first.
	interceptor, err := signal.Intercept()
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	// set logs
	SetupLoggers(logWriter, interceptor)
	err = logWriter.InitLogRotator(
		cfg.LogFile(), cfg.MaxLogFileSize, cfg.MaxLogFiles,
	)
	if err != nil {
		return fmt.Errorf("unable to create log directory %w", err)
	}
	defer logWriter.Close()

	err = build.ParseAndSetDebugLevels(cfg.DebugLevel, logWriter)
	if err != nil {
		return fmt.Errorf("unable to set log level %w", err)
	}

	counter := NewRequestCounter()

	server := NewServer(cfg, counter)
	if err := server.Start(); err != nil {
		log.Errorf("Unable to start server: %v", err)
		return err
	}

	var snapshots *SnapshotWriter
	if cfg.SnapshotInterval > 0 {
		snapshots = NewSnapshotWriter(
			cfg.SnapshotFile, counter.Load,
			ticker.New(cfg.SnapshotInterval),
		)
		if err := snapshots.Start(); err != nil {
			_ = server.Stop(context.Background())
			return err
		}
	}

	var runErr error
	select {
	case <-interceptor.ShutdownChannel():
		log.Infof("Received interrupt signal, shutting down")

	case runErr = <-server.Errors():
		log.Errorf("Error while serving: %v", runErr)
	}

	ctx, cancel := context.WithTimeout(
		context.Background(), cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
		if runErr == nil {
			runErr = err
		}
	}

	if snapshots != nil {
		if err := snapshots.Stop(); err != nil {
			snapLog.Errorf("Unable to write final snapshot: %v", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	log.Infof("Shutdown complete")
	return runErr
}
