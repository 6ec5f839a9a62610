// Package client drives one control session: it pulls discrete actions from
// the server over an established connection, dispatches each to its handler,
// and sends exactly one response per action. The loop is single-threaded and
// processes actions strictly in arrival order; the only bounded wait is shell
// execution, the receive itself blocks for as long as the server stays quiet.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xxSusel/flitify/internal/observability"
	"github.com/xxSusel/flitify/internal/tracing"
	"github.com/xxSusel/flitify/pkg/osagent"
	"github.com/xxSusel/flitify/pkg/protocol"
	"github.com/xxSusel/flitify/pkg/transport"
)

const (
	// DefaultShellTimeout bounds shell_command execution when the action
	// carries no timeout field.
	DefaultShellTimeout = 5 * time.Second

	// DefaultMaxFileBytes caps file transfers in both directions.
	DefaultMaxFileBytes = 64 << 20
)

// Options tune a session. The zero value selects the defaults.
type Options struct {
	// ShellTimeout is the fallback shell_command timeout. Zero or negative
	// selects DefaultShellTimeout.
	ShellTimeout time.Duration

	// ShellPath overrides the POSIX shell used for shell_command. Empty
	// selects /bin/sh. Ignored on Windows, which always uses cmd /C.
	ShellPath string

	// MaxFileBytes caps get_file and upload_file payloads. Zero selects
	// DefaultMaxFileBytes; negative disables the cap.
	MaxFileBytes int64
}

// handlerFunc handles one action and sends its response. It returns the
// response status for accounting, plus an error only when the failure must
// terminate the session.
type handlerFunc func(ctx context.Context, action protocol.Action) (string, error)

// Session owns the action loop for one server connection.
type Session struct {
	conn     transport.Conn
	agent    osagent.Agent
	opts     Options
	logger   zerolog.Logger
	handlers map[protocol.Command]handlerFunc
	id       string
	handled  atomic.Uint64
}

// NewSession wires a connection and a system agent into a runnable session.
func NewSession(conn transport.Conn, agent osagent.Agent, opts Options, logger zerolog.Logger) (*Session, error) {
	if conn == nil {
		return nil, ErrNilConn
	}
	if agent == nil {
		return nil, ErrNilAgent
	}

	if opts.ShellTimeout <= 0 {
		opts.ShellTimeout = DefaultShellTimeout
	}
	if opts.MaxFileBytes == 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}

	id, _ := gonanoid.New()

	s := &Session{
		conn:   conn,
		agent:  agent,
		opts:   opts,
		logger: logger.With().Str("component", "client").Logger(),
		id:     id,
	}

	s.handlers = map[protocol.Command]handlerFunc{
		protocol.CommandPing:       s.handlePing,
		protocol.CommandGetStatus:  s.handleGetStatus,
		protocol.CommandListDir:    s.handleListDir,
		protocol.CommandShell:      s.handleShellCommand,
		protocol.CommandGetFile:    s.handleGetFile,
		protocol.CommandUploadFile: s.handleUploadFile,
		protocol.CommandKick:       s.handleKick,
	}

	return s, nil
}

// ID returns the session's log correlation id.
func (s *Session) ID() string {
	return s.id
}

// ActionsHandled reports how many actions the session has dispatched,
// unknown commands included. Safe to call from other goroutines.
func (s *Session) ActionsHandled() uint64 {
	return s.handled.Load()
}

// Run receives and handles actions until the connection closes, the server
// kicks the session, or an unrecoverable failure occurs.
//
// A closed connection is an orderly exit and returns nil. A kick returns
// *KickedError. Malformed actions and transport write failures return their
// error; contained handler failures are answered on the wire and logged, and
// the loop keeps going.
func (s *Session) Run(ctx context.Context) error {
	observability.RecordSessionStart()
	observability.SetConnected(true)
	defer observability.SetConnected(false)

	sessionCtx := tracing.NewSessionContext(ctx, s.id, s.conn.PeerAddr())
	logger := tracing.LoggerFromContext(sessionCtx, s.logger)

	logger.Info().Msg("Action loop started")
	observability.RecordSessionAudit(sessionCtx, "session_started", s.conn.PeerAddr(), "ok", nil)

	for {
		if !s.conn.Connected() {
			logger.Error().Msg("Connection closed during action loop")
			observability.RecordSessionAudit(sessionCtx, "session_closed", s.conn.PeerAddr(), "ok", nil)
			return nil
		}

		action, err := s.conn.RecvAction()
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				logger.Error().Msg("Connection closed during action loop")
				observability.RecordSessionAudit(sessionCtx, "session_closed", s.conn.PeerAddr(), "ok", nil)
				return nil
			}
			return fmt.Errorf("receive action: %w", err)
		}

		if err := s.dispatch(sessionCtx, action); err != nil {
			return err
		}
	}
}

// dispatch routes one action through the handler table. Unknown commands are
// answered with invalid_action and never terminate the session.
func (s *Session) dispatch(ctx context.Context, action protocol.Action) error {
	s.handled.Add(1)

	ctx = tracing.NewActionContext(ctx)
	ctx, span := tracing.StartSpan(
		ctx,
		"flitify.client",
		"client.action",
		attribute.String("command", string(action.Command)),
	)
	defer span.End()

	logger := tracing.LoggerFromContext(ctx, s.logger)
	logger.Debug().Str("command", string(action.Command)).Msg("Received command")

	handler, ok := s.handlers[action.Command]
	if !ok {
		observability.RecordAction(string(action.Command), "invalid", 0)
		observability.RecordActionAudit(ctx, string(action.Command), s.conn.PeerAddr(), "invalid", nil)
		if err := s.conn.SendResponse(protocol.ResponseInvalidAction, protocol.Payload{}); err != nil {
			return fmt.Errorf("send invalid_action: %w", err)
		}
		return nil
	}

	start := time.Now()
	status, err := handler(ctx, action)
	duration := time.Since(start)

	observability.RecordAction(string(action.Command), status, duration)
	observability.RecordActionAudit(ctx, string(action.Command), s.conn.PeerAddr(), status, nil)

	return err
}

// sendFailure makes the best-effort failure response that precedes a
// propagating malformed-action error. A send failure here must not mask the
// protocol violation, so it is only logged.
func (s *Session) sendFailure(ctx context.Context, t protocol.ResponseType) {
	if err := s.conn.SendResponse(t, protocol.Payload{"status": protocol.StatusFailed}); err != nil {
		logger := tracing.LoggerFromContext(ctx, s.logger)
		logger.Warn().
			Err(err).
			Str("response", string(t)).
			Msg("Failed to send failure response")
	}
}
