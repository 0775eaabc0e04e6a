package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/bindrpc/internal/testutil/testlog"
)

func TestEncodeDecodeCallRequest(t *testing.T) {
	testlog.Start(t)
	args := []byte{0, 0, 0, 3, 0, 0, 0, 4}
	wire := EncodeCall("add", args)
	want := []byte{0, 0, 0, 0, 3, 'a', 'd', 'd', 0, 0, 0, 3, 0, 0, 0, 4}
	if !bytes.Equal(wire, want) {
		t.Fatalf("call wire mismatch: got=%v want=%v", wire, want)
	}
	req, err := DecodeRequest(wire)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Type != RequestCall || req.Handle != "add" || !bytes.Equal(req.Args, args) {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeSignatureAndListRequests(t *testing.T) {
	testlog.Start(t)
	req, err := DecodeRequest(EncodeSignatureRequest("seq"))
	if err != nil || req.Type != RequestSignature || req.Handle != "seq" {
		t.Fatalf("signature request: req=%+v err=%v", req, err)
	}
	req, err = DecodeRequest(EncodeHandleListRequest())
	if err != nil || req.Type != RequestHandleList {
		t.Fatalf("handle list request: req=%+v err=%v", req, err)
	}
	req, err = DecodeRequest(EncodeVarListRequest())
	if err != nil || req.Type != RequestVarList {
		t.Fatalf("var list request: req=%+v err=%v", req, err)
	}
}

func TestDecodeRequestMalformed(t *testing.T) {
	testlog.Start(t)
	cases := [][]byte{
		nil,
		{byte(RequestCall)},
		{byte(RequestCall), 0, 0, 0, 9, 'a'},
		{byte(RequestSignature), 0, 0},
	}
	for _, wire := range cases {
		if _, err := DecodeRequest(wire); !errors.Is(err, ErrMalformedRequest) {
			t.Fatalf("expected ErrMalformedRequest for %v, got %v", wire, err)
		}
	}
}

func TestDecodeRequestUnknownTypeIgnoresPayload(t *testing.T) {
	testlog.Start(t)
	for _, wire := range [][]byte{{99}, {99, 1, 2, 3}, {4}} {
		req, err := DecodeRequest(wire)
		if !errors.Is(err, ErrUnknownRequestType) {
			t.Fatalf("expected ErrUnknownRequestType for %v, got %v", wire, err)
		}
		if req.Type != RequestType(wire[0]) {
			t.Fatalf("request type not preserved: %v", req.Type)
		}
	}
}

func TestReplyHelpers(t *testing.T) {
	testlog.Start(t)
	status, payload, err := DecodeReply(EncodeReply(StatusOK, []byte{7}))
	if err != nil || status != StatusOK || !bytes.Equal(payload, []byte{7}) {
		t.Fatalf("ok reply: status=%v payload=%v err=%v", status, payload, err)
	}
	status, payload, err = DecodeReply(EncodeExecutionError("boom"))
	if err != nil || status != StatusExecutionError {
		t.Fatalf("execution error reply: status=%v err=%v", status, err)
	}
	msg, err := DecodeExecutionError(payload)
	if err != nil || msg != "boom" {
		t.Fatalf("execution error message: %q err=%v", msg, err)
	}
	if _, _, err := DecodeReply(nil); !errors.Is(err, ErrMalformedReply) {
		t.Fatalf("expected ErrMalformedReply, got %v", err)
	}
}

func TestHandleAndVarListRoundTrip(t *testing.T) {
	testlog.Start(t)
	handles, err := DecodeHandleList(EncodeHandleList([]string{"add", "get_x"}))
	if err != nil || len(handles) != 2 || handles[1] != "get_x" {
		t.Fatalf("handle list: %v err=%v", handles, err)
	}
	getter := "get_y"
	vars, err := DecodeVarList(EncodeVarList([]VarEntry{{Name: "y", Getter: &getter}}))
	if err != nil || len(vars) != 1 {
		t.Fatalf("var list: %+v err=%v", vars, err)
	}
	if vars[0].Name != "y" || vars[0].Getter == nil || *vars[0].Getter != "get_y" || vars[0].Setter != nil {
		t.Fatalf("unexpected var entry: %+v", vars[0])
	}
}

func TestStatusStrings(t *testing.T) {
	testlog.Start(t)
	if StatusUnknownHandle.String() != "unknown handle" {
		t.Fatalf("unexpected status string: %q", StatusUnknownHandle.String())
	}
	if RequestType(99).String() != "request(99)" {
		t.Fatalf("unexpected request string: %q", RequestType(99).String())
	}
}
