package transport

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPipe(t *testing.T) {
	a, b := NewPipe()
	defer a.Close()
	defer b.Close()

	go func() {
		require.NoError(t, a.WriteTimeout([]byte{0xfa, 1, 2}, time.Second))
	}()
	buf := make([]byte, 3)
	_, err := io.ReadFull(b, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0xfa, 1, 2}, buf)
}

func TestPipeWriteTimeout(t *testing.T) {
	a, b := NewPipe()
	defer b.Close()
	err := a.WriteTimeout([]byte{1}, 5*time.Millisecond)
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	_, err = b.Read(make([]byte, 1))
	require.Equal(t, io.EOF, err)
}

// blockingConn never completes a write until closed.
type blockingConn struct {
	closed chan struct{}
	closes int
}

func (c *blockingConn) Read(p []byte) (int, error) {
	<-c.closed
	return 0, io.EOF
}

func (c *blockingConn) Write(p []byte) (int, error) {
	<-c.closed
	return 0, io.ErrClosedPipe
}

func (c *blockingConn) Close() error {
	c.closes++
	close(c.closed)
	return nil
}

func TestStreamWriteTimeoutCloses(t *testing.T) {
	conn := &blockingConn{closed: make(chan struct{})}
	s := NewStream(conn)
	err := s.WriteTimeout([]byte{1, 2, 3}, 5*time.Millisecond)
	require.Equal(t, context.DeadlineExceeded, err)
	require.NoError(t, s.Close())
	require.Equal(t, 1, conn.closes)
	_, err = s.Read(make([]byte, 1))
	require.Equal(t, io.EOF, err)
}

// stallingConn stalls writes until the output is reset or it's closed.
type stallingConn struct {
	blockingConn
	reset      chan struct{}
	resets     int
	resetWorks bool
}

func newStallingConn(resetWorks bool) *stallingConn {
	return &stallingConn{
		blockingConn: blockingConn{closed: make(chan struct{})},
		reset:        make(chan struct{}, 1),
		resetWorks:   resetWorks,
	}
}

func (c *stallingConn) Write(p []byte) (int, error) {
	select {
	case <-c.reset:
		return 0, nil
	case <-c.closed:
		return 0, io.ErrClosedPipe
	}
}

func (c *stallingConn) ResetOutputBuffer() error {
	c.resets++
	if c.resetWorks {
		c.reset <- struct{}{}
	}
	return nil
}

func TestStreamWriteTimeoutResetsOutput(t *testing.T) {
	conn := newStallingConn(true)
	s := NewStream(conn)
	for n := 1; n <= 2; n++ {
		err := s.WriteTimeout([]byte{1, 2, 3}, 5*time.Millisecond)
		require.Equal(t, context.DeadlineExceeded, err)
		require.Equal(t, n, conn.resets)
	}
	require.Zero(t, conn.closes)
	require.NoError(t, s.Close())
	require.Equal(t, 1, conn.closes)
}

func TestStreamWriteStuckAfterReset(t *testing.T) {
	conn := newStallingConn(false)
	s := NewStream(conn)
	err := s.WriteTimeout([]byte{1, 2, 3}, 5*time.Millisecond)
	require.Equal(t, context.DeadlineExceeded, err)
	require.Equal(t, 1, conn.resets)
	require.Equal(t, 1, conn.closes)
	_, err = s.Read(make([]byte, 1))
	require.Equal(t, io.EOF, err)
}
