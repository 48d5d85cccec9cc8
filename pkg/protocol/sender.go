package protocol

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"golang.org/x/time/rate"
)

// FrameWriter is the transport collaborator writing complete frames.
// WriteTimeout must either write all of p or fail within timeout.
type FrameWriter interface {
	WriteTimeout(p []byte, timeout time.Duration) error
}

// DefaultWriteTimeout bounds a single frame transmission.
const DefaultWriteTimeout = 100 * time.Millisecond

// Sender builds frames and writes them to the transport.
// It is safe for concurrent use, frames are never interleaved.
type Sender struct {
	Writer  FrameWriter
	Timeout time.Duration
	// Limiter optionally paces outbound frames. Waiting for a token
	// counts against Timeout.
	Limiter *rate.Limiter

	lock     sync.Mutex
	frames   atomic.Uint64
	bytes    atomic.Uint64
	failures atomic.Uint64
}

// SenderStats are counters of a Sender.
type SenderStats struct {
	Frames   uint64
	Bytes    uint64
	Failures uint64
}

// NewSender creates a Sender with the default timeout.
func NewSender(w FrameWriter) *Sender {
	return &Sender{Writer: w, Timeout: DefaultWriteTimeout}
}

// Send frames a payload prefixed by kind and seq.
func (s *Sender) Send(payload []byte, seq Seq, kind Kind) error {
	if len(payload)+PayloadHeaderSize > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	var buf [MaxPayloadSize]byte
	buf[0], buf[1] = byte(kind), byte(seq)
	n := copy(buf[PayloadHeaderSize:], payload)
	return s.WriteFrame(buf[:PayloadHeaderSize+n])
}

// WriteFrame frames payload as-is and writes it.
// The frame is fully encoded before the transport is touched.
func (s *Sender) WriteFrame(payload []byte) error {
	var buf [MaxFrameSize]byte
	frame, err := EncodeFrame(buf[:], payload)
	if err != nil {
		return err
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.Limiter != nil {
		deadline := time.Now().Add(timeout)
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		err = s.Limiter.Wait(ctx)
		cancel()
		if err != nil {
			s.failures.Add(1)
			return &TransportError{Err: err}
		}
		if timeout = time.Until(deadline); timeout <= 0 {
			s.failures.Add(1)
			return &TransportError{Err: context.DeadlineExceeded}
		}
	}
	if err = s.Writer.WriteTimeout(frame, timeout); err != nil {
		s.failures.Add(1)
		glog.V(2).Infof("frame write failed: %v", err)
		return &TransportError{Err: err}
	}
	s.frames.Add(1)
	s.bytes.Add(uint64(len(frame)))
	return nil
}

// Stats gets the current counters.
func (s *Sender) Stats() SenderStats {
	return SenderStats{
		Frames:   s.frames.Load(),
		Bytes:    s.bytes.Load(),
		Failures: s.failures.Load(),
	}
}
