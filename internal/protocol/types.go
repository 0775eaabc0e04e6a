package protocol

import "fmt"

// RequestType is the first byte of every request.
type RequestType uint8

const (
	RequestCall       RequestType = 0
	RequestSignature  RequestType = 1
	RequestHandleList RequestType = 2
	RequestVarList    RequestType = 3
)

func (r RequestType) String() string {
	switch r {
	case RequestCall:
		return "call"
	case RequestSignature:
		return "signature"
	case RequestHandleList:
		return "handle_list"
	case RequestVarList:
		return "var_list"
	default:
		return fmt.Sprintf("request(%d)", uint8(r))
	}
}

// Status is the first byte of every status-prefixed reply.
type Status uint8

const (
	StatusOK             Status = 0
	StatusError          Status = 1
	StatusInvalidRequest Status = 2
	StatusUnknownHandle  Status = 3
	StatusExecutionError Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusInvalidRequest:
		return "invalid request"
	case StatusUnknownHandle:
		return "unknown handle"
	case StatusExecutionError:
		return "execution error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Request is one parsed request envelope. Handle is set for call and
// signature requests; Args holds the undecoded argument bytes of a call.
type Request struct {
	Type   RequestType
	Handle string
	Args   []byte
}

// VarEntry is one row of a variable-list reply. Nil accessors were not bound.
type VarEntry struct {
	Name   string
	Getter *string
	Setter *string
}
