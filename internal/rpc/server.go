package rpc

import (
	"context"
	"net"

	"github.com/danmuck/bindrpc/internal/transport"
)

// Server ties a Registry and Dispatcher to a transport listener.
type Server struct {
	reg  *Registry
	disp *Dispatcher
	srv  *transport.Server
}

func NewServer(cfg transport.Config) *Server {
	reg := NewRegistry()
	disp := NewDispatcher(reg)
	return &Server{
		reg:  reg,
		disp: disp,
		srv:  transport.NewServer(cfg, disp),
	}
}

// Registry returns the registry served by s; use it with BindVar.
func (s *Server) Registry() *Registry {
	return s.reg
}

// Bind is shorthand for s.Registry().Bind.
func (s *Server) Bind(handle string, fn any) error {
	return s.reg.Bind(handle, fn)
}

// Serve listens on the configured address until ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.srv.ListenAndServe(ctx)
}

// ServeListener serves on an existing listener until ctx ends.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	return s.srv.Serve(ctx, ln)
}

// Addr blocks until the server is listening and returns its address.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	return s.srv.Addr(ctx)
}
