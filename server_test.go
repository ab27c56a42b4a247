package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, listen string) (*Server, *RequestCounter) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Listen = listen
	cfg.DataDir = t.TempDir()
	cfg.AllowedOrigins = defaultAllowedOrigins

	counter := NewRequestCounter()
	return NewServer(cfg, counter), counter
}

func stopServer(t *testing.T, s *Server) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func getCount(t *testing.T, addr net.Addr) string {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("http://%s/", addr))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestServerStartStop(t *testing.T) {
	s, _ := newTestServer(t, "127.0.0.1:0")
	require.Equal(t, Stopped, s.State())
	require.Nil(t, s.Addr())

	require.NoError(t, s.Start())
	require.Equal(t, Listening, s.State())
	require.Error(t, s.Start())

	require.Equal(t, "Number of connections: 1", getCount(t, s.Addr()))
	require.Equal(t, "Number of connections: 2", getCount(t, s.Addr()))
	require.Equal(t, "Number of connections: 3", getCount(t, s.Addr()))

	stopServer(t, s)
	require.Equal(t, Stopped, s.State())

	// Stopping again is a no-op.
	stopServer(t, s)

	_, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	require.Error(t, err)
}

func TestServerBindFailure(t *testing.T) {
	first, _ := newTestServer(t, "127.0.0.1:0")
	require.NoError(t, first.Start())
	defer stopServer(t, first)

	second, _ := newTestServer(t, first.Addr().String())
	err := second.Start()
	require.Error(t, err)
	require.Contains(t, err.Error(), first.Addr().String())
	require.Equal(t, Stopped, second.State())

	// The first listener is unaffected.
	require.Equal(t, "Number of connections: 1", getCount(t, first.Addr()))
}

func TestServerMalformedRequest(t *testing.T) {
	s, counter := newTestServer(t, "127.0.0.1:0")
	require.NoError(t, s.Start())
	defer stopServer(t, s)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("NOT A REQUEST LINE\r\n\r\n"))
	require.NoError(t, err)

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, counter.Load())

	require.Equal(t, "Number of connections: 1", getCount(t, s.Addr()))
}

func TestServerStateString(t *testing.T) {
	require.Equal(t, "Stopped", Stopped.String())
	require.Equal(t, "Listening", Listening.String())
	require.Equal(t, "ServerState(7)", ServerState(7).String())
}
