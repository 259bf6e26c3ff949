package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/pepys/internal/protocol/block"
	"github.com/danmuck/pepys/internal/protocol/frame"
	"github.com/danmuck/pepys/internal/protocol/message"
)

var (
	ErrClosed       = errors.New("client: closed")
	ErrDialAttempts = errors.New("client: dial attempts exhausted")
)

// Config defines dialing and group limits for a Client.
type Config struct {
	DialTimeout time.Duration
	// Attempts bounds dial retries. Values below one mean a single attempt.
	Attempts int
	Backoff  BackoffConfig
	Limits   frame.Limits
	// TLS dials with TLS when set.
	TLS *tls.Config
}

func DefaultConfig() Config {
	return Config{
		DialTimeout: 5 * time.Second,
		Attempts:    3,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
		Limits: frame.DefaultLimits(),
	}
}

// RemoteError is an Rerror answer surfaced as a Go error.
type RemoteError struct {
	Ename string
}

func (e *RemoteError) Error() string { return "client: remote error: " + e.Ename }

// AsError returns a *RemoteError when m is an Rerror and nil otherwise.
func AsError(m message.Message) error {
	if r, ok := m.(*message.Rerror); ok {
		return &RemoteError{Ename: r.Ename}
	}
	return nil
}

// Client sends message groups over one connection and reads the answers.
// Exchanges are serialized.
type Client struct {
	cfg  Config
	conn net.Conn

	mu     sync.Mutex
	closed bool
}

// Dial connects to addr, retrying with backoff until cfg.Attempts are spent
// or ctx ends.
func Dial(ctx context.Context, addr string, cfg Config) (*Client, error) {
	cfg.Limits = cfg.Limits.WithDefaults()
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := dialOnce(ctx, addr, cfg)
		if err == nil {
			return NewClient(conn, cfg), nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		delay := NextBackoffDelay(cfg.Backoff, attempt, rng)
		log.Debug().Str("addr", addr).Int("attempt", attempt).Dur("retry_in", delay).Err(err).Msg("dial failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("%w: %s after %d: %v", ErrDialAttempts, addr, attempts, lastErr)
}

func dialOnce(ctx context.Context, addr string, cfg Config) (net.Conn, error) {
	d := &net.Dialer{Timeout: cfg.DialTimeout}
	if cfg.TLS != nil {
		td := &tls.Dialer{NetDialer: d, Config: cfg.TLS}
		return td.DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, cfg Config) *Client {
	cfg.Limits = cfg.Limits.WithDefaults()
	return &Client{cfg: cfg, conn: conn}
}

// Exchange sends msgs as one group and returns the decoded answer group.
// Data fields of the answers alias a buffer owned by this call's result.
func (c *Client) Exchange(ctx context.Context, msgs ...message.Message) ([]message.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	out := block.New(c.cfg.Limits.OutboundBytes)
	for _, m := range msgs {
		if err := message.Encode(out, m); err != nil {
			return nil, fmt.Errorf("client: encode %s: %w", m.Code(), err)
		}
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer func() {
		if !stop() {
			_ = c.conn.SetDeadline(time.Time{})
		}
	}()

	if err := frame.WriteGroup(c.conn, out, c.cfg.Limits); err != nil {
		return nil, ctxErr(ctx, err)
	}
	in, err := frame.ReadGroup(c.conn, c.cfg.Limits)
	if err != nil {
		return nil, ctxErr(ctx, err)
	}

	var resp []message.Message
	for !in.Exhausted() {
		m, err := message.Decode(in)
		if err != nil {
			return resp, err
		}
		resp = append(resp, m)
	}
	return resp, nil
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Client) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
