package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/robotalks/srpc/pkg/protocol"
)

var (
	// ErrResponseTimeout indicates no matching response arrived in time.
	ErrResponseTimeout = errors.New("response timeout")
	// ErrUnknownFunction indicates the function isn't registered.
	ErrUnknownFunction = errors.New("function not found")
	// ErrBadArguments indicates arguments don't match the schema.
	ErrBadArguments = errors.New("bad arguments")
	// ErrShortResult indicates the result is smaller than its type.
	ErrShortResult = errors.New("short result")
	// ErrMalformed indicates a payload without a valid function name.
	ErrMalformed = errors.New("malformed message")
	// ErrDuplicated indicates the function name is already registered.
	ErrDuplicated = errors.New("function already registered")
	// ErrInvalidName indicates the function name is empty or too long.
	ErrInvalidName = errors.New("invalid function name")
)

// RemoteError is the error replied by the peer.
type RemoteError struct {
	Seq     protocol.Seq
	Message string
}

// Error implements error.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (seq %d): %s", e.Seq, e.Message)
}

// ErrorKind classifies an error returned by this package.
type ErrorKind int

// Error kinds.
const (
	ErrorKindNone ErrorKind = iota
	ErrorKindFrameCorrupt
	ErrorKindFrameTooLarge
	ErrorKindTransportFailure
	ErrorKindRemoteError
	ErrorKindResponseTimeout
	ErrorKindUnknownFunction
	ErrorKindOther
)

var errorKindNames = [...]string{
	"None",
	"FrameCorrupt",
	"FrameTooLarge",
	"TransportFailure",
	"RemoteError",
	"ResponseTimeout",
	"UnknownFunction",
	"Other",
}

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "Other"
}

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	var remoteErr *RemoteError
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.As(err, &remoteErr):
		return ErrorKindRemoteError
	case errors.Is(err, protocol.ErrTransport), errors.Is(err, protocol.ErrPayloadTooLarge):
		return ErrorKindTransportFailure
	case errors.Is(err, ErrResponseTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindResponseTimeout
	case errors.Is(err, ErrUnknownFunction):
		return ErrorKindUnknownFunction
	case errors.Is(err, protocol.ErrFrameCorrupt):
		return ErrorKindFrameCorrupt
	case errors.Is(err, protocol.ErrFrameTooLarge):
		return ErrorKindFrameTooLarge
	}
	return ErrorKindOther
}
