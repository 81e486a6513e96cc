package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUnknownMethod         = errors.New("unknown method")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrHandler               = errors.New("handler error")
	ErrTimeout               = errors.New("timeout")
	ErrClosed                = errors.New("bridge client closed")
)

// Code classifies a failed reply
type Code string

const (
	CodeUnauthorized          Code = "unauthorized"
	CodeUnknownMethod         Code = "unknown_method"
	CodeCapabilityUnavailable Code = "capability_unavailable"
	CodeHandlerError          Code = "handler_error"
	CodeTimeout               Code = "timeout"
)

// CodeOf maps an error onto the wire taxonomy. Anything unrecognised is a
// handler error.
func CodeOf(err error) Code {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrUnknownMethod):
		return CodeUnknownMethod
	case errors.Is(err, ErrCapabilityUnavailable):
		return CodeCapabilityUnavailable
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	default:
		return CodeHandlerError
	}
}

// sentinel returns the error a code unwraps to
func (c Code) sentinel() error {
	switch c {
	case CodeUnauthorized:
		return ErrUnauthorized
	case CodeUnknownMethod:
		return ErrUnknownMethod
	case CodeCapabilityUnavailable:
		return ErrCapabilityUnavailable
	case CodeTimeout:
		return ErrTimeout
	default:
		return ErrHandler
	}
}

// CallError is what a client call fails with. It is tagged with the method
// name and unwraps to the sentinel matching its code.
type CallError struct {
	Method  string
	Code    Code
	Message string
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Method, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.Code.sentinel()
}

// ReplyError converts a failed reply into a CallError for method
func ReplyError(method string, r Reply) *CallError {
	code := r.Code
	if code == "" {
		code = CodeHandlerError
	}
	return &CallError{Method: method, Code: code, Message: r.Error}
}

// TimeoutError builds the client-side timeout failure for method
func TimeoutError(method string) *CallError {
	return &CallError{Method: method, Code: CodeTimeout, Message: "timeout waiting for reply"}
}

// Unavailable wraps ErrCapabilityUnavailable with the missing capability name
func Unavailable(capability string) error {
	return fmt.Errorf("%w: %s", ErrCapabilityUnavailable, capability)
}
