package protocol

import "github.com/danmuck/bindrpc/internal/pack"

// EncodeCall builds a call request; args must already be packed in
// declared parameter order.
func EncodeCall(handle string, args []byte) []byte {
	p := pack.NewPacker(1 + 4 + len(handle) + len(args))
	p.PutUint8(uint8(RequestCall))
	p.PutString(handle)
	p.Append(args)
	return p.Bytes()
}

func EncodeSignatureRequest(handle string) []byte {
	p := pack.NewPacker(1 + 4 + len(handle))
	p.PutUint8(uint8(RequestSignature))
	p.PutString(handle)
	return p.Bytes()
}

func EncodeHandleListRequest() []byte {
	return []byte{byte(RequestHandleList)}
}

func EncodeVarListRequest() []byte {
	return []byte{byte(RequestVarList)}
}

// EncodeReply builds a status-prefixed reply.
func EncodeReply(status Status, payload []byte) []byte {
	out := make([]byte, 0, 1+len(payload))
	out = append(out, byte(status))
	return append(out, payload...)
}

// EncodeExecutionError builds an ExecutionError reply carrying msg.
func EncodeExecutionError(msg string) []byte {
	p := pack.NewPacker(1 + 4 + len(msg))
	p.PutUint8(uint8(StatusExecutionError))
	p.PutString(msg)
	return p.Bytes()
}

// EncodeHandleList builds the status-free handle-list reply.
func EncodeHandleList(handles []string) []byte {
	b, _ := pack.Encode(handles)
	return b
}

// EncodeVarList builds the status-free variable-list reply.
func EncodeVarList(vars []VarEntry) []byte {
	b, _ := pack.Encode(vars)
	return b
}
