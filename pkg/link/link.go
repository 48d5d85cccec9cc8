package link

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	fx "github.com/robotalks/srpc/pkg/framework"
	"github.com/robotalks/srpc/pkg/protocol"
	"github.com/robotalks/srpc/pkg/rpc"
	"github.com/robotalks/srpc/pkg/transport"
)

// DefaultIdleTimeout abandons a partial frame after the line goes quiet.
const DefaultIdleTimeout = 50 * time.Millisecond

// Options tunes a Link. Zero values select the defaults.
type Options struct {
	CallTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	ByteQueueSize int
	// Housekeeping is the period of Service.Process.
	Housekeeping time.Duration
	// Limiter paces outbound frames when set.
	Limiter *rate.Limiter
}

// Link is an RPC endpoint over a Port. It serves registered functions
// and issues calls on the same link.
type Link struct {
	Port    transport.Port
	Queue   *ByteQueue
	Parser  *protocol.Parser
	Sender  *protocol.Sender
	Client  *rpc.Client
	Service *rpc.Service
	Router  *Router

	receiver *Receiver
	feeder   *Feeder
	loop     *fx.Loop
	closers  []io.Closer

	framesDropped atomic.Uint64
	lastStats     Stats
}

// Stats are the counters of a Link.
type Stats struct {
	FramesReceived   uint64
	FramesDropped    uint64
	FramesUnrouted   uint64
	BytesDropped     uint64
	ResponsesDropped uint64
	ResponsesStale   uint64
	FramesSent       uint64
	BytesSent        uint64
	SendFailures     uint64
	Requests         uint64
	Streams          uint64
	Failures         uint64
}

// New creates a Link over port.
func New(port transport.Port, opts Options) *Link {
	l := &Link{
		Port:   port,
		Queue:  NewByteQueue(opts.ByteQueueSize),
		Sender: protocol.NewSender(port),
		Router: &Router{},
		loop:   fx.NewLoop(),
	}
	if opts.WriteTimeout > 0 {
		l.Sender.Timeout = opts.WriteTimeout
	}
	l.Sender.Limiter = opts.Limiter
	l.Client = rpc.NewClient(l.Sender)
	if opts.CallTimeout > 0 {
		l.Client.Timeout = opts.CallTimeout
	}
	l.Service = rpc.NewService(l.Sender)
	l.Router.Service, l.Router.Client = l.Service, l.Client

	l.Parser = protocol.NewParser(l.Router)
	l.Parser.OnDrop = l.onDrop

	idle := opts.IdleTimeout
	if idle == 0 {
		idle = DefaultIdleTimeout
	}
	l.receiver = &Receiver{Port: port, Queue: l.Queue}
	l.feeder = &Feeder{Queue: l.Queue, Parser: l.Parser, IdleTimeout: idle}
	if opts.Housekeeping > 0 {
		l.loop.Interval = opts.Housekeeping
	}
	l.loop.Add(l)
	return l
}

// AddToLoop implements fx.LoopAdder. A Link added to another loop
// is driven by that loop and must not be Run itself.
func (l *Link) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(l.receiver, l.feeder)
	loop.AddTask(l.Service, fx.ProcessFunc(l.logStats))
}

// Register adds a function to the Service. It must be called before Run.
func (l *Link) Register(name string, b rpc.Binding) error {
	return l.Service.Register(name, b)
}

// Run implements fx.Runnable. It returns when ctx is done or the Port fails,
// the Port is closed when it returns.
func (l *Link) Run(ctx context.Context) error {
	err := l.loop.Run(ctx)
	if ctx.Err() != nil && err == ctx.Err() {
		return nil
	}
	return err
}

// CloseWith ties the lifetime of closers to the Link.
func (l *Link) CloseWith(closers ...io.Closer) {
	l.closers = append(l.closers, closers...)
}

// Close closes the Port, which stops Run, and the closers added by CloseWith.
func (l *Link) Close() error {
	err := l.Port.Close()
	for _, c := range l.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// Call calls a remote function and decodes the result.
func Call[R rpc.Primitive](ctx context.Context, l *Link, name string, args ...interface{}) (R, error) {
	return rpc.Call[R](ctx, l.Client, name, args...)
}

// Stats gets the current counters.
func (l *Link) Stats() Stats {
	client, sender, service := l.Client.Stats(), l.Sender.Stats(), l.Service.Stats()
	return Stats{
		FramesReceived:   l.Router.frames.Load(),
		FramesDropped:    l.framesDropped.Load(),
		FramesUnrouted:   l.Router.unknown.Load(),
		BytesDropped:     l.Queue.Dropped(),
		ResponsesDropped: client.Dropped,
		ResponsesStale:   client.Stale,
		FramesSent:       sender.Frames,
		BytesSent:        sender.Bytes,
		SendFailures:     sender.Failures,
		Requests:         service.Requests,
		Streams:          service.Streams,
		Failures:         service.Failures,
	}
}

func (l *Link) onDrop(err error) {
	l.framesDropped.Add(1)
	glog.V(2).Infof("frame dropped: %v", err)
}

func (l *Link) logStats() {
	st := l.Stats()
	if st.FramesDropped != l.lastStats.FramesDropped || st.BytesDropped != l.lastStats.BytesDropped {
		glog.Warningf("link lost %d frames, %d bytes so far", st.FramesDropped, st.BytesDropped)
	}
	l.lastStats = st
}
