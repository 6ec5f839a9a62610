package tracing

import (
	"context"

	"github.com/rs/zerolog"
)

// PropagateToLogger adds the context's correlation fields to a zerolog logger
func PropagateToLogger(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	tc := FromContext(ctx)

	if tc.TraceID != "" {
		logger = logger.With().Str("trace_id", tc.TraceID).Logger()
	}
	if tc.SessionID != "" {
		logger = logger.With().Str("session_id", tc.SessionID).Logger()
	}
	if tc.ActionID != "" {
		logger = logger.With().Str("action_id", tc.ActionID).Logger()
	}
	if tc.PeerAddr != "" {
		logger = logger.With().Str("peer_addr", tc.PeerAddr).Logger()
	}

	return logger
}

// LoggerFromContext creates a logger with correlation fields from the given context
func LoggerFromContext(ctx context.Context, baseLogger zerolog.Logger) zerolog.Logger {
	return PropagateToLogger(ctx, baseLogger)
}

// MergeContext merges correlation fields from source context into target context
// without overwriting fields the target already carries
func MergeContext(target, source context.Context) context.Context {
	tc := FromContext(source)

	if tc.TraceID != "" && GetTraceID(target) == "" {
		target = WithTraceID(target, tc.TraceID)
	}
	if tc.SessionID != "" && GetSessionID(target) == "" {
		target = WithSessionID(target, tc.SessionID)
	}
	if tc.ActionID != "" && GetActionID(target) == "" {
		target = WithActionID(target, tc.ActionID)
	}
	if tc.PeerAddr != "" && GetPeerAddr(target) == "" {
		target = WithPeerAddr(target, tc.PeerAddr)
	}

	return target
}
