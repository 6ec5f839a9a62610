package daemon

import (
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxSusel/flitify/internal/config"
	"github.com/xxSusel/flitify/internal/logger"
	"github.com/xxSusel/flitify/pkg/client"
	"github.com/xxSusel/flitify/pkg/protocol"
)

// scriptedServer accepts one client connection and plays a fixed action
// script, recording everything the client sends back.
type scriptedServer struct {
	listener net.Listener
	script   []protocol.Envelope

	received chan protocol.Envelope
	errs     chan error
}

func newScriptedServer(t *testing.T, script []protocol.Envelope) *scriptedServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	s := &scriptedServer{
		listener: ln,
		script:   script,
		received: make(chan protocol.Envelope, 16),
		errs:     make(chan error, 1),
	}
	go s.serve()
	return s
}

func (s *scriptedServer) addr() string {
	return s.listener.Addr().String()
}

func (s *scriptedServer) serve() {
	conn, err := s.listener.Accept()
	if err != nil {
		s.errs <- err
		return
	}
	defer conn.Close()

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	// The hello announce arrives before anything else.
	var hello protocol.Envelope
	if err := dec.Decode(&hello); err != nil {
		s.errs <- err
		return
	}
	s.received <- hello

	for _, action := range s.script {
		if err := enc.Encode(action); err != nil {
			s.errs <- err
			return
		}
		if action.Type == string(protocol.CommandKick) {
			// No response follows a kick.
			return
		}
		var resp protocol.Envelope
		if err := dec.Decode(&resp); err != nil {
			s.errs <- err
			return
		}
		s.received <- resp
	}
}

func (s *scriptedServer) next(t *testing.T) protocol.Envelope {
	t.Helper()
	select {
	case env := <-s.received:
		return env
	case err := <-s.errs:
		t.Fatalf("server failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a message from the client")
	}
	return protocol.Envelope{}
}

func startTestClient(t *testing.T, addr string) *Daemon {
	t.Helper()

	tmpDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.DataDir = tmpDir
	cfg.Server.Address = addr

	log, err := logger.New(logger.Config{Level: "error", Console: false})
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	d, err := New(cfg, log, Options{
		Version:    "test",
		ConfigPath: filepath.Join(tmpDir, "client.json"),
	})
	require.NoError(t, err)
	require.NoError(t, d.Start())

	return d
}

func TestDaemonServesActionsUntilKicked(t *testing.T) {
	server := newScriptedServer(t, []protocol.Envelope{
		{Type: "ping", Data: map[string]any{}},
		{Type: "bogus_command", Data: map[string]any{}},
		{Type: "kick", Data: map[string]any{"reason": "maintenance window"}},
	})

	d := startTestClient(t, server.addr())

	hello := server.next(t)
	assert.Equal(t, "hello", hello.Type)
	assert.NotEmpty(t, hello.Data["agent_id"])
	assert.Equal(t, "test", hello.Data["version"])

	pong := server.next(t)
	assert.Equal(t, "pong", pong.Type)

	invalid := server.next(t)
	assert.Equal(t, "invalid_action", invalid.Type)

	err := d.Wait()
	var kicked *client.KickedError
	require.ErrorAs(t, err, &kicked)
	assert.Equal(t, "maintenance window", kicked.Reason)

	status := d.Status()
	assert.False(t, status.Running)
	assert.False(t, d.lifecycle.IsRunning(), "pidfile should be gone after a kick")
}

func TestDaemonExitsCleanlyOnServerClose(t *testing.T) {
	server := newScriptedServer(t, []protocol.Envelope{
		{Type: "ping", Data: map[string]any{}},
	})

	d := startTestClient(t, server.addr())

	hello := server.next(t)
	require.Equal(t, "hello", hello.Type)

	pong := server.next(t)
	require.Equal(t, "pong", pong.Type)

	// The script is exhausted, so the server hangs up. That is an orderly
	// exit, not a failure.
	err := d.Wait()
	assert.NoError(t, err)
	assert.False(t, d.Status().Running)
}

func TestDaemonStatusWhileRunning(t *testing.T) {
	server := newScriptedServer(t, []protocol.Envelope{
		{Type: "ping", Data: map[string]any{}},
	})

	d := startTestClient(t, server.addr())

	hello := server.next(t)
	require.Equal(t, "hello", hello.Type)

	pong := server.next(t)
	require.Equal(t, "pong", pong.Type)

	status := d.Status()
	assert.True(t, status.Running)
	assert.NotEmpty(t, status.SessionID)
	assert.Equal(t, uint64(1), status.ActionsHandled)

	snap := d.collectStats()
	assert.Equal(t, status.SessionID, snap.SessionID)
	assert.Equal(t, uint64(1), snap.ActionsHandled)

	require.NoError(t, d.Wait())
}

func TestDaemonStartTwice(t *testing.T) {
	server := newScriptedServer(t, nil)

	d := startTestClient(t, server.addr())

	err := d.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	require.NoError(t, d.Wait())
}
