package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xxSusel/flitify/internal/observability"
	"github.com/xxSusel/flitify/internal/tracing"
	"github.com/xxSusel/flitify/pkg/protocol"
)

// handlePing answers the server's liveness probe.
func (s *Session) handlePing(ctx context.Context, _ protocol.Action) (string, error) {
	if err := s.conn.SendResponse(protocol.ResponsePong, protocol.Payload{}); err != nil {
		return protocol.StatusFailed, fmt.Errorf("send pong: %w", err)
	}
	return protocol.StatusOK, nil
}

// handleGetStatus reports the host's system snapshot. A collection failure
// means the agent itself is broken, so it terminates the session.
func (s *Session) handleGetStatus(ctx context.Context, _ protocol.Action) (string, error) {
	status, err := s.agent.Status(ctx)
	if err != nil {
		return protocol.StatusFailed, fmt.Errorf("collect status: %w", err)
	}
	if err := s.conn.SendResponse(protocol.ResponseStatus, protocol.Payload(status)); err != nil {
		return protocol.StatusFailed, fmt.Errorf("send status: %w", err)
	}
	return protocol.StatusOK, nil
}

// handleListDir lists the requested directory, defaulting to the filesystem
// root when the action names no path.
func (s *Session) handleListDir(ctx context.Context, action protocol.Action) (string, error) {
	path := action.Data.StringOr("path", "/")

	entries, err := s.agent.ListDir(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if sendErr := s.conn.SendResponse(protocol.ResponseListDir, protocol.Payload{
			"status": protocol.StatusNotFound,
		}); sendErr != nil {
			return protocol.StatusNotFound, fmt.Errorf("send list_dir: %w", sendErr)
		}
		return protocol.StatusNotFound, nil
	case err != nil:
		logger := tracing.LoggerFromContext(ctx, s.logger)
		logger.Warn().Err(err).Str("path", path).Msg("list_dir failed")
		if sendErr := s.conn.SendResponse(protocol.ResponseListDir, protocol.Payload{
			"status": protocol.StatusFailed,
		}); sendErr != nil {
			return protocol.StatusFailed, fmt.Errorf("send list_dir: %w", sendErr)
		}
		return protocol.StatusFailed, nil
	}

	if err := s.conn.SendResponse(protocol.ResponseListDir, protocol.Payload{
		"status":  protocol.StatusOK,
		"entries": entries,
	}); err != nil {
		return protocol.StatusFailed, fmt.Errorf("send list_dir: %w", err)
	}
	return protocol.StatusOK, nil
}

// handleShellCommand executes the requested command line under the host
// shell with a hard timeout. A missing command field is a protocol violation:
// the server gets a best-effort shell_response failure, then the session
// terminates.
func (s *Session) handleShellCommand(ctx context.Context, action protocol.Action) (string, error) {
	command, ok := action.Data.String("command")
	if !ok {
		s.sendFailure(ctx, protocol.ResponseShellResponse)
		return "malformed", fmt.Errorf("%w: shell_command without command", ErrMalformedAction)
	}

	timeout := action.Data.Seconds("timeout", s.opts.ShellTimeout)
	result := s.runShell(ctx, command, timeout)

	switch {
	case result.timedOut:
		if err := s.conn.SendResponse(protocol.ResponseShellResult, protocol.Payload{
			"status":   protocol.StatusTimeout,
			"stderr":   "Command timed out",
			"exitcode": -1,
		}); err != nil {
			return protocol.StatusTimeout, fmt.Errorf("send shell_result: %w", err)
		}
		return protocol.StatusTimeout, nil
	case result.err != nil:
		logger := tracing.LoggerFromContext(ctx, s.logger)
		logger.Warn().Err(result.err).Msg("shell_command failed")
		if err := s.conn.SendResponse(protocol.ResponseShellResult, protocol.Payload{
			"status": protocol.StatusFailed,
		}); err != nil {
			return protocol.StatusFailed, fmt.Errorf("send shell_result: %w", err)
		}
		return protocol.StatusFailed, nil
	}

	if err := s.conn.SendResponse(protocol.ResponseShellResult, protocol.Payload{
		"status":   protocol.StatusOK,
		"stdout":   result.stdout,
		"stderr":   result.stderr,
		"exitcode": result.exitCode,
	}); err != nil {
		return protocol.StatusFailed, fmt.Errorf("send shell_result: %w", err)
	}
	return protocol.StatusOK, nil
}

// handleGetFile reads the requested file and ships it base64-encoded. A
// missing path field is a protocol violation.
func (s *Session) handleGetFile(ctx context.Context, action protocol.Action) (string, error) {
	path, ok := action.Data.String("path")
	if !ok {
		s.sendFailure(ctx, protocol.ResponseFileSend)
		return "malformed", fmt.Errorf("%w: get_file without path", ErrMalformedAction)
	}
	return s.sendFile(ctx, path)
}

func (s *Session) sendFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		if sendErr := s.conn.SendResponse(protocol.ResponseFileSend, protocol.Payload{
			"status": protocol.StatusNotFound,
		}); sendErr != nil {
			return protocol.StatusNotFound, fmt.Errorf("send file_send: %w", sendErr)
		}
		return protocol.StatusNotFound, nil
	}

	logger := tracing.LoggerFromContext(ctx, s.logger)

	if s.opts.MaxFileBytes > 0 && info.Size() > s.opts.MaxFileBytes {
		logger.Warn().
			Str("path", path).
			Int64("size", info.Size()).
			Int64("limit", s.opts.MaxFileBytes).
			Msg("file_send failed: file exceeds transfer limit")
		if sendErr := s.conn.SendResponse(protocol.ResponseFileSend, protocol.Payload{
			"status": protocol.StatusFailed,
		}); sendErr != nil {
			return protocol.StatusFailed, fmt.Errorf("send file_send: %w", sendErr)
		}
		return protocol.StatusFailed, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("file_send failed")
		if sendErr := s.conn.SendResponse(protocol.ResponseFileSend, protocol.Payload{
			"status": protocol.StatusFailed,
		}); sendErr != nil {
			return protocol.StatusFailed, fmt.Errorf("send file_send: %w", sendErr)
		}
		return protocol.StatusFailed, nil
	}

	if err := s.conn.SendResponse(protocol.ResponseFileSend, protocol.Payload{
		"status":   protocol.StatusOK,
		"filedata": base64.StdEncoding.EncodeToString(data),
	}); err != nil {
		return protocol.StatusFailed, fmt.Errorf("send file_send: %w", err)
	}

	observability.RecordTransfer(observability.DirectionOutbound, len(data))
	return protocol.StatusOK, nil
}

// handleUploadFile writes a server-supplied file to disk, refusing to
// overwrite. Missing path or filedata is a protocol violation: the server
// gets a best-effort file_upload failure, then the session terminates.
func (s *Session) handleUploadFile(ctx context.Context, action protocol.Action) (string, error) {
	path, okPath := action.Data.String("path")
	filedata, okData := action.Data.String("filedata")
	if !okPath || !okData {
		s.sendFailure(ctx, protocol.ResponseFileUpload)
		return "malformed", fmt.Errorf("%w: upload_file without path or filedata", ErrMalformedAction)
	}
	return s.saveFile(ctx, path, filedata)
}

func (s *Session) saveFile(ctx context.Context, path, base64data string) (string, error) {
	logger := tracing.LoggerFromContext(ctx, s.logger)

	fileBytes, err := base64.StdEncoding.DecodeString(base64data)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("file_upload failed")
		if sendErr := s.conn.SendResponse(protocol.ResponseFileUpload, protocol.Payload{
			"status": protocol.StatusFailed,
		}); sendErr != nil {
			return protocol.StatusFailed, fmt.Errorf("send file_upload: %w", sendErr)
		}
		return protocol.StatusFailed, nil
	}

	if s.opts.MaxFileBytes > 0 && int64(len(fileBytes)) > s.opts.MaxFileBytes {
		logger.Warn().
			Str("path", path).
			Int("size", len(fileBytes)).
			Int64("limit", s.opts.MaxFileBytes).
			Msg("file_upload failed: payload exceeds transfer limit")
		if sendErr := s.conn.SendResponse(protocol.ResponseFileUpload, protocol.Payload{
			"status": protocol.StatusFailed,
		}); sendErr != nil {
			return protocol.StatusFailed, fmt.Errorf("send file_upload: %w", sendErr)
		}
		return protocol.StatusFailed, nil
	}

	if _, err := os.Stat(path); err == nil {
		if sendErr := s.conn.SendResponse(protocol.ResponseFileUpload, protocol.Payload{
			"status": protocol.StatusFileExists,
		}); sendErr != nil {
			return protocol.StatusFileExists, fmt.Errorf("send file_upload: %w", sendErr)
		}
		return protocol.StatusFileExists, nil
	}

	if err := os.WriteFile(path, fileBytes, 0644); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("file_upload failed")
		if sendErr := s.conn.SendResponse(protocol.ResponseFileUpload, protocol.Payload{
			"status": protocol.StatusFailed,
		}); sendErr != nil {
			return protocol.StatusFailed, fmt.Errorf("send file_upload: %w", sendErr)
		}
		return protocol.StatusFailed, nil
	}

	if err := s.conn.SendResponse(protocol.ResponseFileUpload, protocol.Payload{
		"status": protocol.StatusOK,
	}); err != nil {
		return protocol.StatusFailed, fmt.Errorf("send file_upload: %w", err)
	}

	observability.RecordTransfer(observability.DirectionInbound, len(fileBytes))
	return protocol.StatusOK, nil
}

// handleKick terminates the session on the server's order. The reason is
// mandatory; a kick without one is a protocol violation.
func (s *Session) handleKick(ctx context.Context, action protocol.Action) (string, error) {
	reason, ok := action.Data.String("reason")
	if !ok {
		return "malformed", fmt.Errorf("%w: kick without reason", ErrMalformedAction)
	}

	logger := tracing.LoggerFromContext(ctx, s.logger)
	logger.Error().Str("reason", reason).Msg("Kicked by server")
	observability.RecordSessionAudit(ctx, "session_kicked", s.conn.PeerAddr(), "ok", map[string]any{"reason": reason})

	return "kicked", &KickedError{Reason: reason}
}
