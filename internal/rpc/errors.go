package rpc

import "errors"

var (
	ErrTooManyArgs  = errors.New("rpc: too many arguments")
	ErrNotFunc      = errors.New("rpc: not a function")
	ErrVariadic     = errors.New("rpc: variadic functions cannot be bound")
	ErrBadResults   = errors.New("rpc: unsupported result list")
	ErrBadArguments = errors.New("rpc: malformed arguments")
	ErrEmptyHandle  = errors.New("rpc: empty handle")
	ErrReadOnlyVar  = errors.New("rpc: write access requested on read-only variable")
	ErrNilVar       = errors.New("rpc: nil variable")
)

// ExecutionError is a failure raised by a bound function after its
// arguments decoded successfully.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return "rpc: execution failed: " + e.Message()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Message is the text carried in an ExecutionError reply.
func (e *ExecutionError) Message() string {
	if e.Err == nil || e.Err.Error() == "" {
		return "execution failed"
	}
	return e.Err.Error()
}
