package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// startServer runs Serve on a fresh socket and stops it when the test ends.
func startServer(t *testing.T, handler HandlerFunc) (string, func()) {
	t.Helper()

	path := filepath.Join(t.TempDir(), socketName)
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, listener, handler) }()

	var stopped bool
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		require.NoError(t, <-done)
	}
	t.Cleanup(stop)
	return path, stop
}

// fakePeer accepts one connection, reads the request line and hands the
// connection to reply.
func fakePeer(t *testing.T, reply func(net.Conn)) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), socketName)
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = bufio.NewReader(conn).ReadBytes('\n')
		reply(conn)
	}()
	return path
}

func TestSendCarriesArgsAndLines(t *testing.T) {
	path, _ := startServer(t, func(_ context.Context, req Request) Response {
		if req.Command != "messages" {
			return Failure(errors.New("unexpected " + req.Command))
		}
		return Response{OK: true, State: "listening", Language: "te", Message: "2 messages", Lines: req.Args}
	})

	resp, err := Send(context.Background(), path, Request{Command: "messages", Args: []string{"నమస్కారం", "urea 40kg"}}, time.Second)
	require.NoError(t, err)
	require.Equal(t, Response{
		OK:       true,
		State:    "listening",
		Language: "te",
		Message:  "2 messages",
		Lines:    []string{"నమస్కారం", "urea 40kg"},
	}, resp)
}

func TestSendReplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply func(net.Conn)
		want  string
	}{
		{name: "garbage", reply: func(c net.Conn) { _, _ = c.Write([]byte("{oops\n")) }, want: "decode response"},
		{name: "hangup", reply: func(net.Conn) {}, want: "read response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := fakePeer(t, tt.reply)
			_, err := Send(context.Background(), path, Request{Command: "status"}, time.Second)
			require.ErrorContains(t, err, tt.want)
			require.NotErrorIs(t, err, ErrNotRunning)
		})
	}
}

func TestServeRejectsMalformedRequests(t *testing.T) {
	var handled atomic.Bool
	path, _ := startServer(t, func(context.Context, Request) Response {
		handled.Store(true)
		return Response{OK: true}
	})

	tests := []struct {
		line string
		want string
	}{
		{line: "not-json\n", want: "decode request"},
		{line: `{"args":["ph","6.5"]}` + "\n", want: "no command"},
	}
	for _, tt := range tests {
		conn, err := net.Dial("unix", path)
		require.NoError(t, err)

		_, err = conn.Write([]byte(tt.line))
		require.NoError(t, err)
		raw, err := bufio.NewReader(conn).ReadBytes('\n')
		require.NoError(t, err)
		_ = conn.Close()

		var resp Response
		require.NoError(t, json.Unmarshal(raw, &resp))
		require.False(t, resp.OK)
		require.Contains(t, resp.Error, tt.want)
	}
	require.False(t, handled.Load())
}

func TestFailure(t *testing.T) {
	require.Equal(t, Response{Error: "backend down"}, Failure(errors.New("backend down")))
	require.Equal(t, Response{}, Failure(nil))
}

func TestProbeFollowsServerLifetime(t *testing.T) {
	path, stop := startServer(t, func(_ context.Context, req Request) Response {
		return Response{OK: req.Command == "status", State: "idle"}
	})

	alive, err := Probe(context.Background(), path, time.Second)
	require.NoError(t, err)
	require.True(t, alive)

	stop()

	alive, err = Probe(context.Background(), path, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, alive)
}

func TestSendReportsNotRunning(t *testing.T) {
	dir := t.TempDir()

	_, err := Send(context.Background(), filepath.Join(dir, "missing.sock"), Request{Command: "status"}, 100*time.Millisecond)
	require.ErrorIs(t, err, ErrNotRunning)

	stale := filepath.Join(dir, "stale.sock")
	listener, err := net.Listen("unix", stale)
	require.NoError(t, err)
	if unix, ok := listener.(*net.UnixListener); ok {
		unix.SetUnlinkOnClose(false)
	}
	require.NoError(t, listener.Close())

	_, err = Send(context.Background(), stale, Request{Command: "status"}, 100*time.Millisecond)
	require.ErrorIs(t, err, ErrNotRunning)
}
