package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/bindrpc/internal/rpc"
	"github.com/rs/zerolog/log"
)

type tupleIn struct {
	Items []int8
	Flag  *bool
	Name  string
	N     uint32
}

type tupleOut struct {
	N     uint32
	Name  string
	Flag  *bool
	Items []int8
}

// demoState holds the exposed variables. x is written by clients, so it is
// guarded by mu; y is never written after start.
type demoState struct {
	mu sync.RWMutex
	x  int
	y  string
}

func (st *demoState) X() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.x
}

func newDemoState() *demoState {
	return &demoState{x: 5, y: "const"}
}

func add(x, y uint32) uint32 {
	return x + y
}

// seq returns count values starting at start.
func seq(start uint64, count uint16) []uint64 {
	out := make([]uint64, count)
	for i := range out {
		out[i] = start + uint64(i)
	}
	return out
}

func noArgs() int8 {
	return -5
}

func returnVoid(b bool) {
	log.Info().Bool("arg", b).Msg("bindrpcd: return_void called")
}

func testTuple(in tupleIn) tupleOut {
	return tupleOut{N: in.N, Name: in.Name, Flag: in.Flag, Items: in.Items}
}

func failing() (bool, error) {
	return false, errors.New("calling error();")
}

// bindDemo publishes the sample functions and variables. stop is bound as
// stop_server.
func bindDemo(srv *rpc.Server, st *demoState, stop context.CancelFunc) error {
	reg := srv.Registry()
	binds := []struct {
		handle string
		fn     any
	}{
		{"add", add},
		{"seq", seq},
		{"no_args", noArgs},
		{"return_void", returnVoid},
		{"test_tuple", testTuple},
		{"error", failing},
	}
	for _, b := range binds {
		if err := reg.Bind(b.handle, b.fn); err != nil {
			return err
		}
	}

	stopServer, err := rpc.Proc0(func() error {
		log.Info().Msg("bindrpcd: stop requested")
		stop()
		return nil
	})
	if err != nil {
		return err
	}
	if err := reg.Register("stop_server", stopServer); err != nil {
		return err
	}

	if _, err := rpc.BindVar(reg, "x", rpc.Locked(&st.x, &st.mu), rpc.AccessReadWrite); err != nil {
		return err
	}
	// y is a constant; asking for write access must fail before read-only
	// access is granted.
	if _, err := rpc.BindVar(reg, "y", rpc.ReadOnly(&st.y), rpc.AccessReadWrite); !errors.Is(err, rpc.ErrReadOnlyVar) {
		return fmt.Errorf("bind y: expected read-only rejection, got %v", err)
	}
	if _, err := rpc.BindVar(reg, "y", rpc.ReadOnly(&st.y), rpc.AccessRead); err != nil {
		return err
	}

	for _, h := range reg.Handles() {
		c, _ := reg.Lookup(h)
		log.Debug().Str("handle", h).Stringer("signature", c.Signature()).Msg("bindrpcd: bound")
	}
	return nil
}
