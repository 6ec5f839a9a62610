package client

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedAction is returned when the server sends an action that is
	// missing a required field. The session cannot trust the stream after
	// this, so the loop stops.
	ErrMalformedAction = errors.New("malformed action")

	// ErrNilConn is returned by NewSession when no connection is supplied
	ErrNilConn = errors.New("connection is required")

	// ErrNilAgent is returned by NewSession when no system agent is supplied
	ErrNilAgent = errors.New("system agent is required")
)

// KickedError reports that the server deliberately terminated the session.
// It carries the server-supplied reason and is not a failure: callers should
// treat it as an orderly shutdown.
type KickedError struct {
	Reason string
}

func (e *KickedError) Error() string {
	return fmt.Sprintf("kicked by server: %s", e.Reason)
}
