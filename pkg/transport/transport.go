// Package transport carries the flitify wire protocol between the client and
// the server: one JSON envelope per message, actions inbound and responses
// outbound, over either a raw TCP stream or a WebSocket.
package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/xxSusel/flitify/pkg/protocol"
)

// MaxMessageSize bounds a single inbound wire message.
const MaxMessageSize = 16 * 1024 * 1024

var (
	// ErrClosed is returned by Recv/Send once the connection is gone.
	ErrClosed = errors.New("connection closed")

	// ErrMessageTooLarge is returned when an inbound message exceeds
	// MaxMessageSize. The connection is not usable afterwards.
	ErrMessageTooLarge = errors.New("message exceeds size limit")
)

// Conn is the session's view of an established server connection.
//
// RecvAction blocks until the next action arrives; there is no idle timeout.
// Send and Recv are never called concurrently: the session processes one
// action at a time.
type Conn interface {
	// RecvAction blocks for the next inbound action.
	RecvAction() (protocol.Action, error)

	// SendResponse writes one response envelope.
	SendResponse(t protocol.ResponseType, data protocol.Payload) error

	// Announce sends the one-shot hello envelope identifying this client.
	Announce(info HelloInfo) error

	// Connected reports whether the connection is still usable.
	Connected() bool

	// PeerAddr returns the remote address for logging.
	PeerAddr() string

	Close() error
}

// Config selects and tunes the transport used to reach the server.
type Config struct {
	// Address is a host:port pair, or a ws:// / wss:// URL for the
	// websocket transport.
	Address string

	// Kind is "tcp" or "websocket".
	Kind string

	// DialTimeout bounds connection establishment. Zero means 10s.
	DialTimeout time.Duration

	// ActionsPerSecond throttles inbound actions; zero disables the limiter.
	// Throttling delays receipt, it never discards an action.
	ActionsPerSecond float64
	Burst            int

	// InsecureSkipVerify disables TLS certificate checks for wss URLs.
	InsecureSkipVerify bool
}

// Transport kinds.
const (
	KindTCP       = "tcp"
	KindWebSocket = "websocket"
)

const defaultDialTimeout = 10 * time.Second

// Dial connects to the server using the configured transport.
func Dial(cfg Config) (Conn, error) {
	switch cfg.Kind {
	case KindTCP, "":
		return DialTCP(cfg)
	case KindWebSocket:
		return DialWebSocket(cfg)
	default:
		return nil, fmt.Errorf("unknown transport kind: %s", cfg.Kind)
	}
}

// HelloInfo identifies the client to the server right after connecting.
type HelloInfo struct {
	AgentID  string `json:"agent_id"`
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Version  string `json:"version"`
}

func helloEnvelope(info HelloInfo) protocol.Envelope {
	return protocol.Envelope{
		Type: "hello",
		Data: map[string]any{
			"agent_id": info.AgentID,
			"hostname": info.Hostname,
			"os":       info.OS,
			"arch":     info.Arch,
			"version":  info.Version,
		},
	}
}

func responseEnvelope(t protocol.ResponseType, data protocol.Payload) protocol.Envelope {
	if data == nil {
		data = protocol.Payload{}
	}
	return protocol.Envelope{Type: string(t), Data: data}
}

func actionFromEnvelope(env protocol.Envelope) protocol.Action {
	return protocol.Action{
		Command: protocol.Command(env.Type),
		Data:    protocol.Payload(env.Data),
	}
}
