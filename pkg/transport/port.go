package transport

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/srpc/pkg/framework"
	"github.com/robotalks/srpc/pkg/protocol"
)

// Port is a full-duplex byte link.
// Read blocks until bytes arrive and may return 0 bytes without error
// when the underlying device polls. Close unblocks a pending Read.
type Port interface {
	io.Reader
	protocol.FrameWriter
	io.Closer
}

type deadlineWriter interface {
	SetWriteDeadline(time.Time) error
}

// outputResetter discards pending output, e.g. a serial port.
type outputResetter interface {
	ResetOutputBuffer() error
}

// Stream adapts a byte stream connection to Port.
// When the connection doesn't support write deadlines, a write which
// doesn't complete within the timeout resets the pending output if the
// connection supports it. If the write is still stuck one more timeout
// later, or the connection can't reset output, the Stream is closed.
type Stream struct {
	Conn io.ReadWriteCloser

	closeOnce sync.Once
	closeErr  error
}

// NewStream wraps conn.
func NewStream(conn io.ReadWriteCloser) *Stream {
	return &Stream{Conn: conn}
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	return s.Conn.Read(p)
}

// WriteTimeout implements protocol.FrameWriter.
func (s *Stream) WriteTimeout(p []byte, timeout time.Duration) error {
	if dw, ok := s.Conn.(deadlineWriter); ok {
		if err := dw.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
		_, err := s.Conn.Write(p)
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	done := make(chan struct{})
	defer close(done)
	return fx.RunWithContextCancel(ctx, func() { s.abortWrite(done, timeout) }, func() error {
		_, err := s.Conn.Write(p)
		return err
	})
}

func (s *Stream) abortWrite(done <-chan struct{}, grace time.Duration) {
	if r, ok := s.Conn.(outputResetter); ok {
		err := r.ResetOutputBuffer()
		if err == nil {
			go func() {
				select {
				case <-done:
				case <-time.After(grace):
					glog.Warningf("write stuck after output reset, closing")
					s.Close()
				}
			}()
			return
		}
		glog.Warningf("reset output error: %v", err)
	}
	s.Close()
}

// Close implements io.Closer.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Conn.Close()
	})
	return s.closeErr
}
