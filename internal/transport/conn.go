package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/bindrpc/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

var (
	ErrConnClosed        = errors.New("transport: connection closed")
	ErrConnBroken        = errors.New("transport: connection out of sync")
	ErrUnexpectedFrame   = errors.New("transport: unexpected frame")
	ErrMessageIDMismatch = errors.New("transport: message id mismatch")
)

// Conn is a client connection carrying one request at a time.
type Conn struct {
	cfg  Config
	conn net.Conn
	r    *bufio.Reader

	mu     sync.Mutex
	nextID uint64
	broken error

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Dial connects to addr, bounded by ctx and the configured dial timeout.
// Failed attempts are retried per cfg.Redial.
func Dial(ctx context.Context, addr string, cfg Config) (*Conn, error) {
	cfg = cfg.WithDefaults()
	if addr == "" {
		addr = cfg.Addr
	}
	attempts := max(cfg.Redial.MaxAttempts, 1)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	d := net.Dialer{Timeout: cfg.DialTimeout}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if wait := cfg.Redial.Delay(attempt, rng); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, fmt.Errorf("transport: dial %s: %w", addr, ctx.Err())
			case <-t.C:
			}
		}
		nc, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return newConn(nc, cfg), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			log.Debug().Err(err).Str("addr", addr).Int("attempt", attempt).Msg("transport: dial failed, retrying")
		}
	}
	return nil, fmt.Errorf("transport: dial %s: %w", addr, lastErr)
}

func newConn(nc net.Conn, cfg Config) *Conn {
	return &Conn{
		cfg:  cfg,
		conn: nc,
		r:    bufio.NewReader(nc),
	}
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// RoundTrip sends payload and waits for the matching reply. A failed or
// cancelled round trip leaves the stream unusable.
func (c *Conn) RoundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return nil, ErrConnClosed
	}
	if c.broken != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnBroken, c.broken)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readDeadline, _ := ctx.Deadline()
	writeDeadline := readDeadline
	if c.cfg.WriteTimeout > 0 {
		wd := time.Now().Add(c.cfg.WriteTimeout)
		if writeDeadline.IsZero() || wd.Before(writeDeadline) {
			writeDeadline = wd
		}
	}
	_ = c.conn.SetReadDeadline(readDeadline)
	_ = c.conn.SetWriteDeadline(writeDeadline)
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	c.nextID++
	id := c.nextID
	out, err := c.exchange(id, payload)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else if c.closed.Load() {
			err = ErrConnClosed
		}
		c.broken = err
		return nil, err
	}
	return out, nil
}

func (c *Conn) exchange(id uint64, payload []byte) ([]byte, error) {
	err := frame.WriteFrame(c.conn, frame.Frame{
		Header:  frame.Header{MessageID: id},
		Payload: payload,
	}, c.cfg.Limits)
	if err != nil {
		return nil, err
	}
	f, err := frame.ReadFrame(c.r, c.cfg.Limits)
	if err != nil {
		return nil, err
	}
	if !f.IsResponse() {
		return nil, ErrUnexpectedFrame
	}
	if f.Header.MessageID != id {
		return nil, fmt.Errorf("%w: sent=%d got=%d", ErrMessageIDMismatch, id, f.Header.MessageID)
	}
	return f.Payload, nil
}

// Close releases the connection and unblocks any in-flight RoundTrip.
// Calling Close more than once is safe.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
