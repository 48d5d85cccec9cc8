package link

import (
	"context"
	"time"

	"github.com/robotalks/srpc/pkg/protocol"
)

// Feeder drains the ByteQueue into the Parser.
// It must be the only goroutine calling the Parser.
type Feeder struct {
	Queue  *ByteQueue
	Parser *protocol.Parser
	// IdleTimeout abandons a partial frame when no byte arrives in time.
	// Zero waits forever.
	IdleTimeout time.Duration
}

// Name implements fx.Named.
func (f *Feeder) Name() string {
	return "feeder"
}

// Run implements fx.Runnable.
func (f *Feeder) Run(ctx context.Context) error {
	idle := time.NewTimer(time.Hour)
	idle.Stop()
	defer idle.Stop()
	for {
		var idleCh <-chan time.Time
		if f.IdleTimeout > 0 && f.Parser.State() != protocol.StateWaitSync {
			idle.Reset(f.IdleTimeout)
			idleCh = idle.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-f.Queue.C():
			f.Parser.ProcessByte(b)
		case <-idleCh:
			f.Parser.Abort()
		}
		idle.Stop()
	}
}
