package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameCorrupt indicates a marker or CRC mismatch in a received frame.
	ErrFrameCorrupt = errors.New("frame corrupt")
	// ErrFrameTooLarge indicates the declared length exceeds MaxPayloadSize.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrPayloadTooLarge indicates an outbound payload can't fit in a frame.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrTransport indicates the transport failed to write a frame in time.
	ErrTransport = errors.New("transport failure")
)

// dropError details why a frame was dropped.
// Values are preallocated so the parser never allocates.
type dropError struct {
	reason string
	cause  error
}

// Error implements error.
func (e *dropError) Error() string {
	return e.cause.Error() + ": " + e.reason
}

// Unwrap supports errors.Is against ErrFrameCorrupt/ErrFrameTooLarge.
func (e *dropError) Unwrap() error {
	return e.cause
}

var (
	errBadLength   = &dropError{reason: "declared length", cause: ErrFrameTooLarge}
	errHeaderCRC   = &dropError{reason: "header crc", cause: ErrFrameCorrupt}
	errDataSync    = &dropError{reason: "data sync byte", cause: ErrFrameCorrupt}
	errDataCRC     = &dropError{reason: "data crc", cause: ErrFrameCorrupt}
	errStopByte    = &dropError{reason: "stop byte", cause: ErrFrameCorrupt}
	errInterrupted = &dropError{reason: "reset in the middle of a frame", cause: ErrFrameCorrupt}
)

// TransportError wraps an underlying write failure.
type TransportError struct {
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTransport, e.Err)
}

// Is makes errors.Is(err, ErrTransport) true.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Unwrap returns the transport's error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
