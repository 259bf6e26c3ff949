package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/pepys/internal/dispatch"
	"github.com/danmuck/pepys/internal/observability"
	"github.com/danmuck/pepys/internal/protocol/block"
	"github.com/danmuck/pepys/internal/protocol/frame"
)

var ErrNoTable = errors.New("server: dispatch table required")

// Server accepts protocol connections and answers their message groups
// through one shared dispatch table.
type Server struct {
	cfg      Config
	table    *dispatch.Table
	connInit func(*dispatch.Conn)
	logger   zerolog.Logger
	started  time.Time

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
	wg      sync.WaitGroup

	nextID atomic.Uint64
	active atomic.Int64
	ready  atomic.Bool
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithConnInit runs fn on every new connection before its first group,
// typically to install per-connection handler state in Conn.Aux.
func WithConnInit(fn func(*dispatch.Conn)) Option {
	return func(s *Server) { s.connInit = fn }
}

func New(cfg Config, table *dispatch.Table, opts ...Option) (*Server, error) {
	if table == nil {
		return nil, ErrNoTable
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		table:   table,
		logger:  log.Logger,
		started: time.Now(),
		conns:   make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	observability.RegisterMetrics()
	return s, nil
}

func (s *Server) Config() Config { return s.cfg }

// Ready reports whether the accept loop is running.
func (s *Server) Ready() bool { return s.ready.Load() }

// ActiveConns returns the number of connections being served.
func (s *Server) ActiveConns() int64 { return s.active.Load() }

// ListenAndServe opens the configured listener, plus the admin endpoint when
// one is configured, and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Bool("tls", s.cfg.TLS.Enabled).
		Bool("concurrent", s.cfg.Concurrent).Msg("pepys listening")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	adminErr := make(chan error, 1)
	if addr := strings.TrimSpace(s.cfg.AdminListenAddr); addr != "" {
		go func() {
			adminErr <- s.ServeAdmin(ctx, addr)
		}()
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(ctx, ln)
	}()
	select {
	case err := <-serveErr:
		return err
	case err := <-adminErr:
		if err != nil {
			cancel()
			<-serveErr
			return err
		}
		return <-serveErr
	}
}

func (s *Server) listen() (net.Listener, error) {
	if !s.cfg.TLS.Enabled {
		return net.Listen("tcp", s.cfg.ListenAddr)
	}
	cert, err := tls.LoadX509KeyPair(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	if err != nil {
		return nil, err
	}
	return tls.Listen("tcp", s.cfg.ListenAddr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
}

// Serve accepts connections on ln until ctx ends or ln fails. It returns nil
// when stopped through ctx.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.closeAllConns()
			_ = ln.Close()
		case <-stop:
		}
	}()

	s.ready.Store(true)
	defer s.ready.Store(false)
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if !s.cfg.Concurrent {
			s.handleConn(ctx, conn)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	s.trackConn(conn)
	defer s.untrackConn(conn)
	defer conn.Close()

	if err := s.ServeConn(ctx, conn); err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("connection ended")
	}
}

// ServeConn answers groups on conn until the peer closes it cleanly (nil),
// a transport error occurs, or ctx ends. It does not close conn.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	c := &dispatch.Conn{
		ID:         s.nextID.Add(1),
		RemoteAddr: conn.RemoteAddr().String(),
	}
	if s.connInit != nil {
		s.connInit(c)
	}
	logger := observability.ConnLogger(s.logger, c.ID, c.RemoteAddr)

	active := s.active.Add(1)
	observability.ConnectionOpened()
	logger.Info().Int64("active_conns", active).Msg("client connected")
	defer func() {
		remaining := s.active.Add(-1)
		observability.ConnectionClosed()
		logger.Info().Int64("active_conns", remaining).Msg("client disconnected")
	}()

	reader := bufio.NewReader(conn)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		in, err := frame.ReadGroup(reader, s.cfg.Limits)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		out, err := s.serveGroup(ctx, c, in, logger)
		if err != nil {
			return err
		}

		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := frame.WriteGroup(conn, out, s.cfg.Limits); err != nil {
			return err
		}
	}
}

// serveGroup dispatches one inbound group and returns the outbound block.
func (s *Server) serveGroup(ctx context.Context, c *dispatch.Conn, in *block.Block, logger zerolog.Logger) (*block.Block, error) {
	inBytes := in.Written()
	out := block.New(s.cfg.Limits.OutboundBytes)
	start := time.Now()

	gctx, span := observability.StartGroupSpan(ctx, c.ID, c.RemoteAddr, inBytes)
	res, err := dispatch.ProcessGroup(gctx, s.table, c, in, out)
	span.End(res.Decoded, res.Answered, res.Stop.String(), out.Written(), res.Err)

	observability.RecordGroup(res.Stop.String(), inBytes, out.Written(), time.Since(start))
	for _, o := range res.Outcomes {
		observability.RecordMessage(o.Code.String(), o.Stop.String())
	}

	event := logger.Debug()
	if res.Stop != dispatch.StopExhausted {
		event = logger.Info()
	}
	if res.Stop == dispatch.StopMalformed || res.Stop == dispatch.StopOutOfSpace {
		event = logger.Warn()
	}
	event.
		Int("in_bytes", inBytes).
		Int("out_bytes", out.Written()).
		Int("decoded", res.Decoded).
		Int("answered", res.Answered).
		Str("stop", res.Stop.String()).
		AnErr("cause", res.Err).
		Msg("group")

	return out, err
}

func (s *Server) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
