package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/bindrpc/internal/protocol/frame"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrReplySent     = errors.New("transport: reply already sent")
	ErrServerRunning = errors.New("transport: server already serving")
)

// Sender writes the reply for the message currently being handled.
type Sender interface {
	Send(payload []byte) error
}

// Handler receives every inbound message. ServeMessage runs synchronously on
// the connection's worker; the next message on that connection is not read
// until it returns.
type Handler interface {
	ServeMessage(s Sender, msg []byte)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(s Sender, msg []byte)

func (f HandlerFunc) ServeMessage(s Sender, msg []byte) {
	f(s, msg)
}

// Server accepts connections and feeds their frames to a Handler.
type Server struct {
	cfg     Config
	handler Handler

	mu      sync.Mutex
	ln      net.Listener
	serving bool
	ready   chan struct{}
	active  atomic.Int64
}

func NewServer(cfg Config, h Handler) *Server {
	return &Server{
		cfg:     cfg.WithDefaults(),
		handler: h,
		ready:   make(chan struct{}),
	}
}

// ListenAndServe listens on the configured address and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx ends or accept fails. On return every
// connection has finished its in-flight message and been closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.serving {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerRunning
	}
	s.serving = true
	s.ln = ln
	close(s.ready)
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).Msg("transport: listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		_ = ln.Close()
		return nil
	})
	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return err
			}
			g.Go(func() error {
				s.serveConn(gctx, conn)
				return nil
			})
		}
	})
	err := g.Wait()
	log.Info().Str("addr", ln.Addr().String()).Err(err).Msg("transport: stopped")
	return err
}

// Addr blocks until the server is listening and returns the bound address.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ready:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ln.Addr(), nil
}

// ActiveConns reports the number of open connections.
func (s *Server) ActiveConns() int64 {
	return s.active.Load()
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	logger := log.With().
		Str("conn", uuid.NewString()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()
	logger.Info().Int64("active", s.active.Add(1)).Msg("transport: connection opened")

	// cancellation unblocks the pending read; a reply already in progress
	// is still written before the connection closes
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Unix(1, 0)) })
	defer func() {
		stop()
		_ = conn.Close()
		logger.Info().Int64("active", s.active.Add(-1)).Msg("transport: connection closed")
	}()

	r := bufio.NewReader(conn)
	for {
		if ctx.Err() != nil {
			return
		}
		if s.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
			if ctx.Err() != nil {
				return
			}
		}
		f, err := frame.ReadFrame(r, s.cfg.Limits)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("transport: read failed")
			}
			return
		}
		if f.IsResponse() {
			logger.Debug().Uint64("message_id", f.Header.MessageID).Msg("transport: dropping unsolicited response frame")
			continue
		}

		reply := &replyWriter{
			conn:    conn,
			id:      f.Header.MessageID,
			limits:  s.cfg.Limits,
			timeout: s.cfg.WriteTimeout,
		}
		s.handler.ServeMessage(reply, f.Payload)
		if reply.err != nil {
			logger.Warn().Err(reply.err).Uint64("message_id", reply.id).Msg("transport: write failed")
			return
		}
	}
}

type replyWriter struct {
	conn    net.Conn
	id      uint64
	limits  frame.Limits
	timeout time.Duration
	sent    bool
	err     error
}

func (w *replyWriter) Send(payload []byte) error {
	if w.sent {
		return ErrReplySent
	}
	w.sent = true
	if w.timeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
	}
	w.err = frame.WriteFrame(w.conn, frame.Frame{
		Header:  frame.Header{Flags: frame.FlagIsResponse, MessageID: w.id},
		Payload: payload,
	}, w.limits)
	return w.err
}
