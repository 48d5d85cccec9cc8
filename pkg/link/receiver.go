package link

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/srpc/pkg/framework"
)

// ReceiveBufferSize is the size of a single read from the Port.
const ReceiveBufferSize = 32

// Receiver moves bytes from the Port into the ByteQueue.
type Receiver struct {
	Port  io.ReadCloser
	Queue *ByteQueue
}

// Name implements fx.Named.
func (r *Receiver) Name() string {
	return "receiver"
}

// Run implements fx.Runnable. The Port is closed when Run returns.
// It returns nil when the peer closes the Port.
func (r *Receiver) Run(ctx context.Context) error {
	err := fx.RunWithContextCloser(ctx, r.Port, r.receive)
	if errors.Is(err, io.EOF) {
		glog.Info("link closed by peer")
		return nil
	}
	return err
}

func (r *Receiver) receive() error {
	var buf [ReceiveBufferSize]byte
	for {
		n, err := r.Port.Read(buf[:])
		for _, b := range buf[:n] {
			if !r.Queue.Push(b) {
				glog.V(2).Infof("byte queue full, dropped 0x%02x", b)
			}
		}
		if err != nil {
			return err
		}
	}
}
