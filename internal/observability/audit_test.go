package observability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, InitAuditLogger(path))

	RecordActionAudit(context.Background(), "shell_command", "10.8.0.1:9001", "ok", nil)
	RecordSessionAudit(context.Background(), "session_kicked", "10.8.0.1:9001", "ok",
		map[string]any{"reason": "maintenance"})
	require.NoError(t, GetAuditLogger().Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"action":"execute:shell_command"`)
	assert.Contains(t, text, `"actor":"10.8.0.1:9001"`)
	assert.Contains(t, text, `"action":"session_kicked"`)
	assert.Contains(t, text, "maintenance")
}

// The file sink must survive a GetAuditLogger call that happens after init.
func TestInitAuditLoggerSticksAcrossGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, InitAuditLogger(path))

	logger := GetAuditLogger()
	logger.Record(context.Background(), AuditEvent{
		Type:   "config",
		Action: "config_reloaded",
		Status: "success",
	})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_reloaded")
}
