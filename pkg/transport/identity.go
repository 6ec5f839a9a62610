package transport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const agentIDFile = "agent_id"

// LoadOrCreateAgentID returns the stable identifier this client announces to
// the server, persisted under dataDir so it survives restarts. A missing or
// malformed file yields a fresh ID.
func LoadOrCreateAgentID(dataDir string) (string, error) {
	path := filepath.Join(dataDir, agentIDFile)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, parseErr := uuid.Parse(id); parseErr == nil {
			return id, nil
		}
		log.Warn().Str("path", path).Msg("Discarding malformed agent id")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read agent id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("write agent id: %w", err)
	}

	log.Info().Str("agent_id", id).Msg("Generated new agent id")
	return id, nil
}

// CollectHello gathers the fields announced to the server after connecting.
func CollectHello(agentID, version string) HelloInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return HelloInfo{
		AgentID:  agentID,
		Hostname: hostname,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Version:  version,
	}
}
