package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/xxSusel/flitify/pkg/protocol"
)

// TCPConn speaks newline-delimited JSON envelopes over a raw TCP stream.
type TCPConn struct {
	conn      net.Conn
	scanner   *bufio.Scanner
	writer    *bufio.Writer
	limiter   *rate.Limiter
	connected atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// DialTCP connects to a host:port address and wraps the stream.
func DialTCP(cfg Config) (*TCPConn, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	conn, err := net.DialTimeout("tcp", cfg.Address, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", cfg.Address, err)
	}

	c := NewTCPConn(conn, cfg)
	log.Debug().
		Str("peer_addr", c.PeerAddr()).
		Msg("tcp transport connected")
	return c, nil
}

// NewTCPConn wraps an already established stream. Used by DialTCP and by
// tests that supply their own pipe.
func NewTCPConn(conn net.Conn, cfg Config) *TCPConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), MaxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	c := &TCPConn{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
		ctx:     ctx,
		cancel:  cancel,
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

// RecvAction blocks until the next parseable envelope arrives. Lines that do
// not decode as an envelope are logged and skipped; they never become
// actions. Closure of the stream surfaces as ErrClosed.
func (c *TCPConn) RecvAction() (protocol.Action, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(c.ctx); err != nil {
			return protocol.Action{}, ErrClosed
		}
	}

	for {
		if !c.scanner.Scan() {
			c.connected.Store(false)
			err := c.scanner.Err()
			switch {
			case err == nil, errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				return protocol.Action{}, ErrClosed
			case errors.Is(err, bufio.ErrTooLong):
				return protocol.Action{}, ErrMessageTooLarge
			default:
				return protocol.Action{}, fmt.Errorf("read message: %w", err)
			}
		}

		line := c.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var env protocol.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			log.Warn().
				Err(err).
				Str("peer_addr", c.PeerAddr()).
				Msg("skipping undecodable message")
			continue
		}
		return actionFromEnvelope(env), nil
	}
}

// SendResponse writes one envelope followed by a newline and flushes.
func (c *TCPConn) SendResponse(t protocol.ResponseType, data protocol.Payload) error {
	return c.writeEnvelope(responseEnvelope(t, data))
}

// Announce sends the hello envelope. Called once, right after dialing.
func (c *TCPConn) Announce(info HelloInfo) error {
	return c.writeEnvelope(helloEnvelope(info))
}

func (c *TCPConn) writeEnvelope(env protocol.Envelope) error {
	if !c.connected.Load() {
		return ErrClosed
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	payload = append(payload, '\n')

	if _, err := c.writer.Write(payload); err != nil {
		c.connected.Store(false)
		return fmt.Errorf("write envelope: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		c.connected.Store(false)
		return fmt.Errorf("flush envelope: %w", err)
	}
	return nil
}

// Connected reports whether the stream is still usable.
func (c *TCPConn) Connected() bool {
	return c.connected.Load()
}

// PeerAddr returns the remote host:port.
func (c *TCPConn) PeerAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close tears the stream down and unblocks a pending RecvAction.
func (c *TCPConn) Close() error {
	c.connected.Store(false)
	c.cancel()
	return c.conn.Close()
}
