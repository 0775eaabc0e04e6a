package protocol

import (
	"fmt"

	"github.com/danmuck/bindrpc/internal/pack"
)

// DecodeRequest parses a request envelope. An unrecognized type byte yields
// ErrUnknownRequestType with Type set; any other parse failure is
// ErrMalformedRequest.
func DecodeRequest(b []byte) (Request, error) {
	u := pack.NewUnpacker(b)
	raw, err := u.Uint8()
	if err != nil {
		return Request{}, fmt.Errorf("%w: request type: %v", ErrMalformedRequest, err)
	}
	req := Request{Type: RequestType(raw)}
	switch req.Type {
	case RequestCall:
		if req.Handle, err = u.String(); err != nil {
			return Request{}, fmt.Errorf("%w: handle: %v", ErrMalformedRequest, err)
		}
		req.Args = u.Rest()
	case RequestSignature:
		if req.Handle, err = u.String(); err != nil {
			return Request{}, fmt.Errorf("%w: handle: %v", ErrMalformedRequest, err)
		}
	case RequestHandleList, RequestVarList:
	default:
		return req, fmt.Errorf("%w: %d", ErrUnknownRequestType, raw)
	}
	return req, nil
}

// DecodeReply splits a status-prefixed reply into its status and payload.
func DecodeReply(b []byte) (Status, []byte, error) {
	if len(b) == 0 {
		return 0, nil, fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}
	return Status(b[0]), b[1:], nil
}

// DecodeExecutionError reads the message carried by an ExecutionError payload.
func DecodeExecutionError(payload []byte) (string, error) {
	msg, err := pack.Decode[string](payload)
	if err != nil {
		return "", fmt.Errorf("%w: execution error message: %v", ErrMalformedReply, err)
	}
	return msg, nil
}

// DecodeHandleList parses a handle-list reply.
func DecodeHandleList(b []byte) ([]string, error) {
	handles, err := pack.Decode[[]string](b)
	if err != nil {
		return nil, fmt.Errorf("%w: handle list: %v", ErrMalformedReply, err)
	}
	return handles, nil
}

// DecodeVarList parses a variable-list reply.
func DecodeVarList(b []byte) ([]VarEntry, error) {
	vars, err := pack.Decode[[]VarEntry](b)
	if err != nil {
		return nil, fmt.Errorf("%w: var list: %v", ErrMalformedReply, err)
	}
	return vars, nil
}
