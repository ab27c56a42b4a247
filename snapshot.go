package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/lightningnetwork/lnd/ticker"
)

// SnapshotWriter periodically writes the current count to a text file. The
// file is only an export, nothing reads it back on start.
type SnapshotWriter struct {
	path   string
	source func() uint64
	ticker ticker.Ticker

	// last is only touched by the loop goroutine, and by Stop once the
	// loop has exited.
	last    uint64
	written bool

	startOnce sync.Once
	stopOnce  sync.Once
	stopErr   error

	quit chan struct{}
	wg   sync.WaitGroup
}

func NewSnapshotWriter(path string, source func() uint64,
	t ticker.Ticker) *SnapshotWriter {

	return &SnapshotWriter{
		path:   path,
		source: source,
		ticker: t,
		quit:   make(chan struct{}),
	}
}

// Start creates the snapshot directory and launches the write loop.
func (s *SnapshotWriter) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("unable to create snapshot directory: %w", err)
	}

	s.startOnce.Do(func() {
		snapLog.Infof("Writing count snapshots to %s", s.path)

		s.ticker.Resume()

		s.wg.Add(1)
		go s.loop()
	})

	return nil
}

// Stop ends the write loop and writes one final snapshot.
func (s *SnapshotWriter) Stop() error {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.wg.Wait()
		s.ticker.Stop()

		s.stopErr = s.write()
	})

	return s.stopErr
}

func (s *SnapshotWriter) loop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.Ticks():
			if err := s.write(); err != nil {
				snapLog.Errorf("Unable to write snapshot: %v", err)
			}

		case <-s.quit:
			return
		}
	}
}

func (s *SnapshotWriter) write() error {
	n := s.source()
	if s.written && n == s.last {
		return nil
	}

	if err := writeSnapshot(s.path, n); err != nil {
		return err
	}

	s.last, s.written = n, true
	snapLog.Debugf("Wrote snapshot count=%d", n)
	return nil
}

// writeSnapshot replaces the file at path with n through a rename, so a
// reader sees either the old or the new count.
func writeSnapshot(path string, n uint64) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("unable to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.FormatUint(n, 10) + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to write snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("unable to replace snapshot: %w", err)
	}

	return nil
}
