package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/bindrpc/internal/protocol/frame"
	"github.com/danmuck/bindrpc/internal/testutil/testlog"
)

func startServer(t *testing.T, h Handler) (*Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(Config{}, h)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop")
		}
	})
	return srv, ln.Addr().String()
}

func echo() Handler {
	return HandlerFunc(func(s Sender, msg []byte) {
		_ = s.Send(append([]byte("re:"), msg...))
	})
}

func TestRoundTripEchoesPayload(t *testing.T) {
	testlog.Start(t)
	_, addr := startServer(t, echo())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr, Config{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	for _, msg := range []string{"one", "two", ""} {
		out, err := c.RoundTrip(ctx, []byte(msg))
		if err != nil {
			t.Fatalf("round trip %q: %v", msg, err)
		}
		if string(out) != "re:"+msg {
			t.Fatalf("unexpected reply: %q", out)
		}
	}
}

func TestServerAddrAndActiveConns(t *testing.T) {
	testlog.Start(t)
	srv, addr := startServer(t, echo())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := srv.Addr(ctx)
	if err != nil {
		t.Fatalf("addr: %v", err)
	}
	if got.String() != addr {
		t.Fatalf("addr mismatch: got=%s want=%s", got, addr)
	}

	c, err := Dial(ctx, addr, Config{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if got := c.RemoteAddr().String(); got != addr {
		t.Fatalf("remote addr: got=%s want=%s", got, addr)
	}
	if _, err := c.RoundTrip(ctx, []byte("x")); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if n := srv.ActiveConns(); n != 1 {
		t.Fatalf("expected one active connection, got %d", n)
	}
	_ = c.Close()
}

func TestServerEchoesMessageIDWithResponseFlag(t *testing.T) {
	testlog.Start(t)
	_, addr := startServer(t, echo())

	nc, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer nc.Close()
	_ = nc.SetDeadline(time.Now().Add(5 * time.Second))

	limits := frame.DefaultLimits()
	if err := frame.WriteFrame(nc, frame.Frame{Header: frame.Header{MessageID: 77}, Payload: []byte("hi")}, limits); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := frame.ReadFrame(nc, limits)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !f.IsResponse() || f.Header.MessageID != 77 || !bytes.Equal(f.Payload, []byte("re:hi")) {
		t.Fatalf("unexpected reply frame: %+v payload=%q", f.Header, f.Payload)
	}
}

func TestSecondSendIsRejected(t *testing.T) {
	testlog.Start(t)
	second := make(chan error, 1)
	_, addr := startServer(t, HandlerFunc(func(s Sender, msg []byte) {
		_ = s.Send(msg)
		second <- s.Send(msg)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr, Config{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	if _, err := c.RoundTrip(ctx, []byte("a")); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if err := <-second; !errors.Is(err, ErrReplySent) {
		t.Fatalf("expected ErrReplySent, got %v", err)
	}
}

func TestRoundTripTimeoutBreaksConn(t *testing.T) {
	testlog.Start(t)
	release := make(chan struct{})
	_, addr := startServer(t, HandlerFunc(func(s Sender, msg []byte) {
		<-release
		_ = s.Send(msg)
	}))
	defer close(release)

	c, err := Dial(context.Background(), addr, Config{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.RoundTrip(ctx, []byte("slow")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if _, err := c.RoundTrip(context.Background(), []byte("again")); !errors.Is(err, ErrConnBroken) {
		t.Fatalf("expected ErrConnBroken, got %v", err)
	}
}

func TestRoundTripAfterClose(t *testing.T) {
	testlog.Start(t)
	_, addr := startServer(t, echo())
	c, err := Dial(context.Background(), addr, Config{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := c.RoundTrip(context.Background(), []byte("x")); !errors.Is(err, ErrConnClosed) {
		t.Fatalf("expected ErrConnClosed, got %v", err)
	}
}

func TestServeRejectsSecondListener(t *testing.T) {
	testlog.Start(t)
	srv, _ := startServer(t, echo())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := srv.Addr(ctx); err != nil {
		t.Fatalf("addr: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := srv.Serve(ctx, ln); !errors.Is(err, ErrServerRunning) {
		t.Fatalf("expected ErrServerRunning, got %v", err)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := Config{Addr: ":9000", IdleTimeout: -1}.WithDefaults()
	if cfg.Addr != ":9000" || cfg.IdleTimeout != 0 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.DialTimeout != DefaultConfig().DialTimeout || cfg.Limits != frame.DefaultLimits() {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestBackoffDelay(t *testing.T) {
	testlog.Start(t)
	b := Backoff{MaxAttempts: 5, InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond}
	want := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := b.Delay(i+1, nil); got != w {
			t.Fatalf("attempt %d: got=%v want=%v", i+1, got, w)
		}
	}
	b.Jitter = true
	if got := b.Delay(2, nil); got != 50*time.Millisecond {
		t.Fatalf("jitter without rng should halve the delay, got %v", got)
	}
}

func TestDialRetriesUntilListening(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	cfg := Config{Redial: Backoff{MaxAttempts: 2, InitialDelay: time.Millisecond}}
	if _, err := Dial(context.Background(), addr, cfg); err == nil {
		t.Fatalf("expected dial failure with nothing listening")
	}

	cfg.Redial = Backoff{MaxAttempts: 50, InitialDelay: 20 * time.Millisecond, Multiplier: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() {
		time.Sleep(100 * time.Millisecond)
		ln2, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		srv := NewServer(Config{}, echo())
		_ = srv.Serve(ctx, ln2)
	}()
	c, err := Dial(ctx, addr, cfg)
	if err != nil {
		t.Skipf("port %s was not reusable: %v", addr, err)
	}
	defer c.Close()
	out, err := c.RoundTrip(ctx, []byte("up"))
	if err != nil || string(out) != "re:up" {
		t.Fatalf("round trip after redial: out=%q err=%v", out, err)
	}
}
