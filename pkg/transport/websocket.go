package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/xxSusel/flitify/pkg/protocol"
)

// WSConn speaks one JSON envelope per WebSocket text message.
type WSConn struct {
	conn      *websocket.Conn
	limiter   *rate.Limiter
	connected atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// DialWebSocket connects to a ws:// or wss:// URL. A bare host:port address
// is dialed as ws://.
func DialWebSocket(cfg Config) (*WSConn, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}
	if cfg.InsecureSkipVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	address := cfg.Address
	if !strings.Contains(address, "://") {
		address = "ws://" + address
	}

	conn, _, err := dialer.Dial(address, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", address, err)
	}
	conn.SetReadLimit(MaxMessageSize)

	c := NewWSConn(conn, cfg)
	log.Debug().
		Str("peer_addr", c.PeerAddr()).
		Msg("websocket transport connected")
	return c, nil
}

// NewWSConn wraps an already established WebSocket connection.
func NewWSConn(conn *websocket.Conn, cfg Config) *WSConn {
	ctx, cancel := context.WithCancel(context.Background())
	c := &WSConn{
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.ActionsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.ActionsPerSecond), burst)
	}
	c.connected.Store(true)
	return c
}

// RecvAction blocks for the next inbound envelope. Messages that do not
// decode as an envelope are logged and skipped. Peer closes surface as
// ErrClosed; only unexpected close codes are treated as read failures.
func (c *WSConn) RecvAction() (protocol.Action, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(c.ctx); err != nil {
			return protocol.Action{}, ErrClosed
		}
	}

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.connected.Store(false)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				return protocol.Action{}, fmt.Errorf("read message: %w", err)
			}
			return protocol.Action{}, ErrClosed
		}

		var env protocol.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Warn().
				Err(err).
				Str("peer_addr", c.PeerAddr()).
				Msg("skipping undecodable message")
			continue
		}
		return actionFromEnvelope(env), nil
	}
}

// SendResponse writes one response envelope as a text message.
func (c *WSConn) SendResponse(t protocol.ResponseType, data protocol.Payload) error {
	return c.writeEnvelope(responseEnvelope(t, data))
}

// Announce sends the hello envelope. Called once, right after dialing.
func (c *WSConn) Announce(info HelloInfo) error {
	return c.writeEnvelope(helloEnvelope(info))
}

func (c *WSConn) writeEnvelope(env protocol.Envelope) error {
	if !c.connected.Load() {
		return ErrClosed
	}
	if err := c.conn.WriteJSON(env); err != nil {
		c.connected.Store(false)
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}

// Connected reports whether the connection is still usable.
func (c *WSConn) Connected() bool {
	return c.connected.Load()
}

// PeerAddr returns the remote address.
func (c *WSConn) PeerAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close tears the connection down and unblocks a pending RecvAction.
func (c *WSConn) Close() error {
	c.connected.Store(false)
	c.cancel()
	return c.conn.Close()
}
