package client

import (
	"context"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxSusel/flitify/pkg/osagent"
	"github.com/xxSusel/flitify/pkg/protocol"
)

func TestGetStatus_ForwardsAgentSnapshot(t *testing.T) {
	status := map[string]any{
		"hostname": "workstation",
		"os":       "linux",
		"cpu":      8,
	}
	conn := newFakeConn(action(protocol.CommandGetStatus, nil))
	s := newTestSession(t, conn, &fakeAgent{status: status}, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.ResponseStatus, conn.sent[0].Type)
	assert.Equal(t, "workstation", conn.sent[0].Data["hostname"])
	assert.Equal(t, "linux", conn.sent[0].Data["os"])
	assert.Equal(t, 8, conn.sent[0].Data["cpu"])
}

func TestGetStatus_AgentFailureTerminates(t *testing.T) {
	conn := newFakeConn(
		action(protocol.CommandGetStatus, nil),
		action(protocol.CommandPing, nil),
	)
	s := newTestSession(t, conn, &fakeAgent{statusErr: errors.New("host info unavailable")}, Options{})

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host info unavailable")
	assert.Empty(t, conn.sent)
}

func TestListDir_DefaultsToRoot(t *testing.T) {
	conn := newFakeConn(action(protocol.CommandListDir, nil))
	agent := &fakeAgent{entries: []osagent.Entry{}}
	s := newTestSession(t, conn, agent, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/", agent.listPath)
}

func TestListDir_OKCarriesEntries(t *testing.T) {
	entries := []osagent.Entry{
		{Name: "etc", Type: osagent.EntryTypeDir},
		{Name: "vmlinuz", Type: osagent.EntryTypeFile, Size: 8192},
	}
	conn := newFakeConn(action(protocol.CommandListDir, protocol.Payload{"path": "/"}))
	s := newTestSession(t, conn, &fakeAgent{entries: entries}, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.ResponseListDir, conn.sent[0].Type)
	assert.Equal(t, protocol.StatusOK, conn.sent[0].Data["status"])
	assert.Equal(t, entries, conn.sent[0].Data["entries"])
}

func TestListDir_MissingPathIsNotFound(t *testing.T) {
	conn := newFakeConn(action(protocol.CommandListDir, protocol.Payload{"path": "/no/such/dir"}))
	agent := &fakeAgent{listErr: fs.ErrNotExist}
	s := newTestSession(t, conn, agent, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.StatusNotFound, conn.sent[0].Data["status"])
	_, hasEntries := conn.sent[0].Data["entries"]
	assert.False(t, hasEntries)
}

func TestGetFile_RoundTripsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	content := []byte("quarterly numbers\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	conn := newFakeConn(action(protocol.CommandGetFile, protocol.Payload{"path": path}))
	s := newTestSession(t, conn, &fakeAgent{}, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 1)
	resp := conn.sent[0]
	assert.Equal(t, protocol.ResponseFileSend, resp.Type)
	assert.Equal(t, protocol.StatusOK, resp.Data["status"])

	decoded, decodeErr := base64.StdEncoding.DecodeString(resp.Data["filedata"].(string))
	require.NoError(t, decodeErr)
	assert.Equal(t, content, decoded)
}

func TestGetFile_MissingFileIsNotFound(t *testing.T) {
	conn := newFakeConn(action(protocol.CommandGetFile, protocol.Payload{
		"path": filepath.Join(t.TempDir(), "absent.bin"),
	}))
	s := newTestSession(t, conn, &fakeAgent{}, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.StatusNotFound, conn.sent[0].Data["status"])
}

func TestGetFile_DirectoryIsNotFound(t *testing.T) {
	conn := newFakeConn(action(protocol.CommandGetFile, protocol.Payload{"path": t.TempDir()}))
	s := newTestSession(t, conn, &fakeAgent{}, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.StatusNotFound, conn.sent[0].Data["status"])
}

func TestGetFile_OversizedIsContainedFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 256), 0644))

	conn := newFakeConn(
		action(protocol.CommandGetFile, protocol.Payload{"path": path}),
		action(protocol.CommandPing, nil),
	)
	s := newTestSession(t, conn, &fakeAgent{}, Options{MaxFileBytes: 100})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 2)
	assert.Equal(t, protocol.StatusFailed, conn.sent[0].Data["status"])
	assert.Equal(t, protocol.ResponsePong, conn.sent[1].Type)
}

func TestGetFile_MissingPathIsMalformed(t *testing.T) {
	conn := newFakeConn(action(protocol.CommandGetFile, protocol.Payload{}))
	s := newTestSession(t, conn, &fakeAgent{}, Options{})

	err := s.Run(context.Background())
	require.ErrorIs(t, err, ErrMalformedAction)

	// Best-effort failure response precedes the termination.
	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.ResponseFileSend, conn.sent[0].Type)
	assert.Equal(t, protocol.StatusFailed, conn.sent[0].Data["status"])
}

func TestUploadFile_WritesNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "incoming.cfg")
	content := []byte("key=value\n")

	conn := newFakeConn(action(protocol.CommandUploadFile, protocol.Payload{
		"path":     path,
		"filedata": base64.StdEncoding.EncodeToString(content),
	}))
	s := newTestSession(t, conn, &fakeAgent{}, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.ResponseFileUpload, conn.sent[0].Type)
	assert.Equal(t, protocol.StatusOK, conn.sent[0].Data["status"])

	written, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, content, written)
}

func TestUploadFile_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.cfg")
	original := []byte("original")
	require.NoError(t, os.WriteFile(path, original, 0644))

	conn := newFakeConn(action(protocol.CommandUploadFile, protocol.Payload{
		"path":     path,
		"filedata": base64.StdEncoding.EncodeToString([]byte("replacement")),
	}))
	s := newTestSession(t, conn, &fakeAgent{}, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.StatusFileExists, conn.sent[0].Data["status"])

	kept, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, original, kept, "existing file must stay untouched")
}

func TestUploadFile_BadBase64IsContainedFailure(t *testing.T) {
	conn := newFakeConn(
		action(protocol.CommandUploadFile, protocol.Payload{
			"path":     filepath.Join(t.TempDir(), "x.bin"),
			"filedata": "%%% not base64 %%%",
		}),
		action(protocol.CommandPing, nil),
	)
	s := newTestSession(t, conn, &fakeAgent{}, Options{})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 2)
	assert.Equal(t, protocol.StatusFailed, conn.sent[0].Data["status"])
	assert.Equal(t, protocol.ResponsePong, conn.sent[1].Type)
}

func TestUploadFile_OversizedIsContainedFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")

	conn := newFakeConn(action(protocol.CommandUploadFile, protocol.Payload{
		"path":     path,
		"filedata": base64.StdEncoding.EncodeToString(make([]byte, 256)),
	}))
	s := newTestSession(t, conn, &fakeAgent{}, Options{MaxFileBytes: 100})

	err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, conn.sent, 1)
	assert.Equal(t, protocol.StatusFailed, conn.sent[0].Data["status"])

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "oversized payload must not be written")
}

func TestUploadFile_MissingFieldsAreMalformed(t *testing.T) {
	tests := []struct {
		name string
		data protocol.Payload
	}{
		{"no path", protocol.Payload{"filedata": "aGk="}},
		{"no filedata", protocol.Payload{"path": "/tmp/x"}},
		{"empty path", protocol.Payload{"path": "", "filedata": "aGk="}},
		{"nothing", protocol.Payload{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn(action(protocol.CommandUploadFile, tt.data))
			s := newTestSession(t, conn, &fakeAgent{}, Options{})

			err := s.Run(context.Background())
			require.ErrorIs(t, err, ErrMalformedAction)

			require.Len(t, conn.sent, 1)
			assert.Equal(t, protocol.ResponseFileUpload, conn.sent[0].Type)
			assert.Equal(t, protocol.StatusFailed, conn.sent[0].Data["status"])
		})
	}
}
