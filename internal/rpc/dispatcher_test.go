package rpc

import (
	"bytes"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/danmuck/bindrpc/internal/pack"
	"github.com/danmuck/bindrpc/internal/protocol"
	"github.com/danmuck/bindrpc/internal/testutil/testlog"
)

func newTestDispatcher(t *testing.T) (*Registry, *Dispatcher) {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Bind("add", func(x, y uint32) uint32 { return x + y }); err != nil {
		t.Fatalf("bind add: %v", err)
	}
	if err := reg.Bind("error", func() error { return errors.New("requested failure") }); err != nil {
		t.Fatalf("bind error: %v", err)
	}
	return reg, NewDispatcher(reg)
}

func replyOf(t *testing.T, b []byte) (protocol.Status, []byte) {
	t.Helper()
	status, payload, err := protocol.DecodeReply(b)
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return status, payload
}

func TestDispatchAddScenario(t *testing.T) {
	testlog.Start(t)
	_, d := newTestDispatcher(t)

	reply := d.Dispatch(protocol.EncodeCall("add", []byte{0, 0, 0, 3, 0, 0, 0, 4}))
	if !bytes.Equal(reply, []byte{byte(protocol.StatusOK), 0, 0, 0, 7}) {
		t.Fatalf("call add: %v", reply)
	}

	reply = d.Dispatch(protocol.EncodeSignatureRequest("add"))
	want := []byte{byte(protocol.StatusOK), byte(pack.KindUint32), 2, byte(pack.KindUint32), byte(pack.KindUint32)}
	if !bytes.Equal(reply, want) {
		t.Fatalf("signature add: got=%v want=%v", reply, want)
	}

	reply = d.Dispatch(protocol.EncodeCall("missing", nil))
	if !bytes.Equal(reply, []byte{byte(protocol.StatusUnknownHandle)}) {
		t.Fatalf("call missing: %v", reply)
	}
}

func TestDispatchUnknownHandleIgnoresPayload(t *testing.T) {
	testlog.Start(t)
	_, d := newTestDispatcher(t)
	for _, args := range [][]byte{nil, {1, 2, 3}, bytes.Repeat([]byte{0xFF}, 64)} {
		status, payload := replyOf(t, d.Dispatch(protocol.EncodeCall("nope", args)))
		if status != protocol.StatusUnknownHandle || len(payload) != 0 {
			t.Fatalf("expected bare UnknownHandle, got %v %v", status, payload)
		}
	}
	status, _ := replyOf(t, d.Dispatch(protocol.EncodeSignatureRequest("nope")))
	if status != protocol.StatusUnknownHandle {
		t.Fatalf("signature of unknown handle: %v", status)
	}
}

func TestDispatchExecutionErrorKeepsHandle(t *testing.T) {
	testlog.Start(t)
	reg, d := newTestDispatcher(t)
	for i := 0; i < 2; i++ {
		status, payload := replyOf(t, d.Dispatch(protocol.EncodeCall("error", nil)))
		if status != protocol.StatusExecutionError {
			t.Fatalf("expected ExecutionError, got %v", status)
		}
		msg, err := protocol.DecodeExecutionError(payload)
		if err != nil || msg != "requested failure" {
			t.Fatalf("execution error message: %q err=%v", msg, err)
		}
	}
	if _, ok := reg.Lookup("error"); !ok {
		t.Fatalf("failing handle should remain bound")
	}
}

func TestDispatchBadArgumentsIsError(t *testing.T) {
	testlog.Start(t)
	_, d := newTestDispatcher(t)
	for _, args := range [][]byte{nil, {0, 0, 0, 3}, {0, 0, 0, 3, 0, 0, 0, 4, 9}} {
		reply := d.Dispatch(protocol.EncodeCall("add", args))
		if !bytes.Equal(reply, []byte{byte(protocol.StatusError)}) {
			t.Fatalf("args %v: expected bare Error, got %v", args, reply)
		}
	}
}

func TestDispatchMalformedEnvelope(t *testing.T) {
	testlog.Start(t)
	_, d := newTestDispatcher(t)
	for _, msg := range [][]byte{nil, {byte(protocol.RequestCall), 0, 0}, {byte(protocol.RequestSignature), 0, 0, 0, 5, 'a'}} {
		if reply := d.Dispatch(msg); !bytes.Equal(reply, []byte{byte(protocol.StatusError)}) {
			t.Fatalf("msg %v: expected Error, got %v", msg, reply)
		}
	}
}

func TestDispatchInvalidRequestType(t *testing.T) {
	testlog.Start(t)
	_, d := newTestDispatcher(t)
	for _, msg := range [][]byte{{99}, {99, 0, 0, 0, 3, 'a', 'd', 'd'}, {4}, {255, 1}} {
		if reply := d.Dispatch(msg); !bytes.Equal(reply, []byte{byte(protocol.StatusInvalidRequest)}) {
			t.Fatalf("msg %v: expected InvalidRequest, got %v", msg, reply)
		}
	}
}

func TestDispatchHandleListIncludesAccessors(t *testing.T) {
	testlog.Start(t)
	reg, d := newTestDispatcher(t)
	x := 5
	if _, err := BindVar(reg, "x", Ref(&x), AccessReadWrite); err != nil {
		t.Fatalf("bind var: %v", err)
	}
	if err := reg.Bind("add", func(x, y uint32) uint32 { return x * y }); err != nil {
		t.Fatalf("rebind: %v", err)
	}

	handles, err := protocol.DecodeHandleList(d.Dispatch(protocol.EncodeHandleListRequest()))
	if err != nil {
		t.Fatalf("decode handle list: %v", err)
	}
	want := []string{"add", "error", "get_x", "set_x"}
	if len(handles) != len(want) {
		t.Fatalf("handles: got=%v want=%v", handles, want)
	}
	for i := range want {
		if handles[i] != want[i] {
			t.Fatalf("handles: got=%v want=%v", handles, want)
		}
	}

	vars, err := protocol.DecodeVarList(d.Dispatch(protocol.EncodeVarListRequest()))
	if err != nil {
		t.Fatalf("decode var list: %v", err)
	}
	if len(vars) != 1 || vars[0].Name != "x" || vars[0].Getter == nil || *vars[0].Getter != "get_x" ||
		vars[0].Setter == nil || *vars[0].Setter != "set_x" {
		t.Fatalf("unexpected var list: %+v", vars)
	}
}

func TestRebindInvokesNewestOnly(t *testing.T) {
	testlog.Start(t)
	reg, d := newTestDispatcher(t)
	oldCalls := 0
	if err := reg.Bind("op", func() uint8 { oldCalls++; return 1 }); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := reg.Bind("op", func() uint8 { return 2 }); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	reply := d.Dispatch(protocol.EncodeCall("op", nil))
	if !bytes.Equal(reply, []byte{byte(protocol.StatusOK), 2}) || oldCalls != 0 {
		t.Fatalf("expected newest binding only: reply=%v oldCalls=%d", reply, oldCalls)
	}
	if reg.Len() != 3 {
		t.Fatalf("rebind should not duplicate handles, len=%d", reg.Len())
	}
}

func TestVarGetSetSequence(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	d := NewDispatcher(reg)
	x := int64(0)
	if _, err := BindVar(reg, "x", Ref(&x), AccessReadWrite); err != nil {
		t.Fatalf("bind var: %v", err)
	}

	get := func() []byte { return d.Dispatch(protocol.EncodeCall("get_x", nil)) }
	if !bytes.Equal(get(), append([]byte{byte(protocol.StatusOK)}, mustPack(t, int64(0))...)) {
		t.Fatalf("initial get: %v", get())
	}
	set := d.Dispatch(protocol.EncodeCall("set_x", mustPack(t, int64(-42))))
	if !bytes.Equal(set, []byte{byte(protocol.StatusOK)}) {
		t.Fatalf("set should return unit: %v", set)
	}
	if !bytes.Equal(get(), append([]byte{byte(protocol.StatusOK)}, mustPack(t, int64(-42))...)) {
		t.Fatalf("get after set: %v", get())
	}
	if x != -42 {
		t.Fatalf("local variable not updated: %d", x)
	}
}

func TestBindVarReadOnlyRejectsWrite(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	y := uint16(7)
	for _, access := range []Access{AccessWrite, AccessReadWrite} {
		if _, err := BindVar(reg, "y", ReadOnly(&y), access); !errors.Is(err, ErrReadOnlyVar) {
			t.Fatalf("access %s: expected ErrReadOnlyVar, got %v", access, err)
		}
	}
	if reg.Len() != 0 || len(reg.Vars()) != 0 {
		t.Fatalf("rejected binding must not register anything: handles=%v", reg.Handles())
	}

	entry, err := BindVar(reg, "y", ReadOnly(&y), AccessRead)
	if err != nil {
		t.Fatalf("read-only bind: %v", err)
	}
	if entry.Getter == nil || entry.Setter != nil {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if _, ok := reg.Lookup("set_y"); ok {
		t.Fatalf("set_y must not exist")
	}
}

func TestBindVarAccessNone(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	z := true
	entry, err := BindVar(reg, "z", Ref(&z), AccessNone)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if entry.Getter != nil || entry.Setter != nil || reg.Len() != 0 {
		t.Fatalf("AccessNone should record the name only: %+v", entry)
	}
	if vars := reg.Vars(); len(vars) != 1 || vars[0].Name != "z" {
		t.Fatalf("vars: %+v", vars)
	}
}

func TestBindVarRebindKeepsEarlierAccessors(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	d := NewDispatcher(reg)
	x := uint8(1)
	if _, err := BindVar(reg, "x", Ref(&x), AccessReadWrite); err != nil {
		t.Fatalf("bind: %v", err)
	}
	entry, err := BindVar(reg, "x", Ref(&x), AccessRead)
	if err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if entry.Setter != nil {
		t.Fatalf("narrowed entry should not name a setter: %+v", entry)
	}

	handles, err := protocol.DecodeHandleList(d.Dispatch(protocol.EncodeHandleListRequest()))
	if err != nil {
		t.Fatalf("decode handle list: %v", err)
	}
	if !reflect.DeepEqual(handles, []string{"get_x", "set_x"}) {
		t.Fatalf("handles after narrowing rebind: %v", handles)
	}
	vars := reg.Vars()
	if len(vars) != 1 || vars[0].Getter == nil || vars[0].Setter != nil {
		t.Fatalf("var entry should reflect the latest binding: %+v", vars)
	}

	if _, err := BindVar(reg, "x", Ref(&x), AccessNone); err != nil {
		t.Fatalf("rebind none: %v", err)
	}
	if _, ok := reg.Lookup("get_x"); !ok {
		t.Fatalf("getter bound earlier must stay listed")
	}
}

func TestRegistryRejectsEmptyNames(t *testing.T) {
	testlog.Start(t)
	reg := NewRegistry()
	if err := reg.Bind("", func() {}); !errors.Is(err, ErrEmptyHandle) {
		t.Fatalf("expected ErrEmptyHandle, got %v", err)
	}
	v := 1
	if _, err := BindVar(reg, "", Ref(&v), AccessRead); !errors.Is(err, ErrEmptyHandle) {
		t.Fatalf("expected ErrEmptyHandle for var, got %v", err)
	}
	if _, err := BindVar[int](reg, "v", nil, AccessRead); !errors.Is(err, ErrNilVar) {
		t.Fatalf("expected ErrNilVar, got %v", err)
	}
	if err := reg.Register("h", nil); !errors.Is(err, ErrNotFunc) {
		t.Fatalf("expected ErrNotFunc, got %v", err)
	}
}

func TestRegistryConcurrentBindAndDispatch(t *testing.T) {
	testlog.Start(t)
	reg, d := newTestDispatcher(t)
	counter := int32(0)
	var mu sync.RWMutex
	if _, err := BindVar(reg, "counter", Locked(&counter, &mu), AccessReadWrite); err != nil {
		t.Fatalf("bind var: %v", err)
	}

	addMsg := protocol.EncodeCall("add", mustPack(t, uint32(1), uint32(2)))
	setMsg := protocol.EncodeCall("set_counter", mustPack(t, int32(3)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if reply := d.Dispatch(addMsg); len(reply) == 0 || reply[0] != byte(protocol.StatusOK) {
					t.Errorf("add reply: %v", reply)
					return
				}
				d.Dispatch(setMsg)
			}
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := reg.Bind("scratch", func() int32 { return int32(i) }); err != nil {
					t.Errorf("bind: %v", err)
					return
				}
				d.Dispatch(protocol.EncodeHandleListRequest())
			}
		}(i)
	}
	wg.Wait()

	mu.RLock()
	defer mu.RUnlock()
	if counter != 3 {
		t.Fatalf("counter: %d", counter)
	}
}

func TestAccessString(t *testing.T) {
	testlog.Start(t)
	cases := map[Access]string{
		AccessNone:      "none",
		AccessRead:      "read",
		AccessWrite:     "write",
		AccessReadWrite: "read|write",
	}
	for a, want := range cases {
		if a.String() != want {
			t.Fatalf("Access(%d).String()=%q want %q", a, a.String(), want)
		}
	}
}
