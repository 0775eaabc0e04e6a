package protocol

import "errors"

var (
	ErrMalformedRequest   = errors.New("protocol: malformed request")
	ErrUnknownRequestType = errors.New("protocol: unknown request type")
	ErrMalformedReply     = errors.New("protocol: malformed reply")
)
