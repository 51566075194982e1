package lcd

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolTimeout is matched by every *TimeoutError.
	ErrProtocolTimeout = errors.New("no response from display")
	// ErrInvalidParameter is matched by every *ParamError.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrMalformedResponse is matched by every *ResponseError.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrBroken is returned by every call after a transport failure.
	ErrBroken = errors.New("display connection unusable")
	// ErrClosed is returned by every call after Close.
	ErrClosed = errors.New("display closed")
)

// TransportError is an I/O failure on the serial link. The display is
// unusable once one has been returned.
type TransportError struct {
	Op      string
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Command, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError reports that no non-empty response line arrived within the
// read-attempt budget. The command may or may not have taken effect.
type TimeoutError struct {
	Command  string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%q: %v after %d empty reads", e.Command, ErrProtocolTimeout, e.Attempts)
}

func (e *TimeoutError) Unwrap() error { return ErrProtocolTimeout }

// ParamError rejects a call before anything is written to the wire.
type ParamError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%v: %s %v: %s", ErrInvalidParameter, e.Param, e.Value, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

// ResponseError is a response line that could not be parsed.
type ResponseError struct {
	Command  string
	Response string
	Err      error
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("%v to %q: %q", ErrMalformedResponse, e.Command, e.Response)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResponseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedResponse}
	}
	return []error{ErrMalformedResponse, e.Err}
}
