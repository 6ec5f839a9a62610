package tracing

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// SessionIDKey is the context key for the control-session ID
	SessionIDKey ContextKey = "session_id"
	// ActionIDKey is the context key for the per-action ID
	ActionIDKey ContextKey = "action_id"
	// PeerAddrKey is the context key for the server's remote address
	PeerAddrKey ContextKey = "peer_addr"
)

// TraceContext holds the correlation fields attached to a control session.
type TraceContext struct {
	TraceID   string
	SessionID string
	ActionID  string
	PeerAddr  string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewActionID generates a new per-action ID
func NewActionID() string {
	return uuid.New().String()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithSessionID adds a control-session ID to the context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithActionID adds a per-action ID to the context
func WithActionID(ctx context.Context, actionID string) context.Context {
	return context.WithValue(ctx, ActionIDKey, actionID)
}

// WithPeerAddr adds the server's remote address to the context
func WithPeerAddr(ctx context.Context, peerAddr string) context.Context {
	return context.WithValue(ctx, PeerAddrKey, peerAddr)
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetSessionID retrieves the control-session ID from the context
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// GetActionID retrieves the per-action ID from the context
func GetActionID(ctx context.Context) string {
	if actionID, ok := ctx.Value(ActionIDKey).(string); ok {
		return actionID
	}
	return ""
}

// GetPeerAddr retrieves the server's remote address from the context
func GetPeerAddr(ctx context.Context) string {
	if peerAddr, ok := ctx.Value(PeerAddrKey).(string); ok {
		return peerAddr
	}
	return ""
}

// FromContext extracts all correlation fields from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID:   GetTraceID(ctx),
		SessionID: GetSessionID(ctx),
		ActionID:  GetActionID(ctx),
		PeerAddr:  GetPeerAddr(ctx),
	}
}

// NewContext creates a new context carrying the given correlation fields
func NewContext(ctx context.Context, tc *TraceContext) context.Context {
	if tc.TraceID != "" {
		ctx = WithTraceID(ctx, tc.TraceID)
	}
	if tc.SessionID != "" {
		ctx = WithSessionID(ctx, tc.SessionID)
	}
	if tc.ActionID != "" {
		ctx = WithActionID(ctx, tc.ActionID)
	}
	if tc.PeerAddr != "" {
		ctx = WithPeerAddr(ctx, tc.PeerAddr)
	}
	return ctx
}

// NewSessionContext creates a context for a freshly established control
// session: a new trace ID plus the session's correlation fields.
func NewSessionContext(ctx context.Context, sessionID, peerAddr string) context.Context {
	ctx = WithTraceID(ctx, NewTraceID())
	ctx = WithSessionID(ctx, sessionID)
	return WithPeerAddr(ctx, peerAddr)
}

// NewActionContext derives a per-action context from a session context,
// stamping a fresh action ID while keeping the session's correlation fields.
func NewActionContext(ctx context.Context) context.Context {
	return WithActionID(ctx, NewActionID())
}
