package rpc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/srpc/pkg/protocol"
)

const (
	// DefaultCallTimeout is the default time waiting for a response.
	DefaultCallTimeout = time.Second
	// ResponseQueueSize is the capacity of the response queue.
	ResponseQueueSize = 16
)

// Client issues calls and waits for their responses.
//
// Responses are delivered through a single queue and matched by sequence
// when dequeued, so a Client serves one synchronous call at a time.
// A response arriving after its call timed out is discarded by the next call.
type Client struct {
	Sender  *protocol.Sender
	Timeout time.Duration

	seq       uint32
	responses chan protocol.Packet
	callLock  sync.Mutex
	dropped   atomic.Uint64
	stale     atomic.Uint64
}

// ClientStats are counters of a Client.
type ClientStats struct {
	// Dropped is the responses dropped because the queue was full.
	Dropped uint64
	// Stale is the responses discarded for mismatching sequence.
	Stale uint64
}

// NewClient creates a Client sending with sender.
func NewClient(sender *protocol.Sender) *Client {
	return &Client{
		Sender:    sender,
		Timeout:   DefaultCallTimeout,
		responses: make(chan protocol.Packet, ResponseQueueSize),
	}
}

// HandlePacket implements protocol.PacketHandler.
// Every valid Response/Error packet is queued regardless of its sequence,
// it never blocks and drops the packet when the queue is full.
func (c *Client) HandlePacket(pkt *protocol.Packet) {
	if !pkt.Valid || !pkt.Kind.IsReply() {
		return
	}
	select {
	case c.responses <- *pkt:
	default:
		c.dropped.Add(1)
		glog.Warningf("response queue full, dropped %s", pkt)
	}
}

// Stats gets the current counters.
func (c *Client) Stats() ClientStats {
	return ClientStats{Dropped: c.dropped.Load(), Stale: c.stale.Load()}
}

func (c *Client) nextSeq() protocol.Seq {
	return protocol.Seq(atomic.AddUint32(&c.seq, 1) - 1)
}

func (c *Client) send(name string, args []byte, seq protocol.Seq, kind protocol.Kind) error {
	if !validName(name) {
		return ErrInvalidName
	}
	var buf [MaxBodySize]byte
	n, err := encodeBody(buf[:], name, args)
	if err != nil {
		return err
	}
	return c.Sender.Send(buf[:n], seq, kind)
}

// Invoke sends a request with packed args and waits for the result bytes.
func (c *Client) Invoke(ctx context.Context, name string, args []byte) ([]byte, error) {
	c.callLock.Lock()
	defer c.callLock.Unlock()

	c.discardStale()
	seq := c.nextSeq()
	if err := c.send(name, args, seq, protocol.KindRequest); err != nil {
		return nil, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, fmt.Errorf("%w: %s seq %d after %v", ErrResponseTimeout, name, seq, timeout)
		case pkt := <-c.responses:
			if pkt.Seq != seq {
				c.stale.Add(1)
				glog.V(2).Infof("discard %s while waiting for seq %d", &pkt, seq)
				continue
			}
			msg, err := ParseMessage(&pkt)
			if err != nil {
				return nil, err
			}
			if msg.Kind == protocol.KindError {
				return nil, &RemoteError{Seq: seq, Message: string(msg.Args)}
			}
			return append([]byte(nil), msg.Args...), nil
		}
	}
}

func (c *Client) discardStale() {
	for {
		select {
		case pkt := <-c.responses:
			c.stale.Add(1)
			glog.V(2).Infof("discard late %s", &pkt)
		default:
			return
		}
	}
}

// Do packs args by their Go types, calls name and returns the result bytes.
func (c *Client) Do(ctx context.Context, name string, args ...interface{}) ([]byte, error) {
	var buf [MaxBodySize]byte
	n, err := packArgs(buf[:], args)
	if err != nil {
		return nil, err
	}
	return c.Invoke(ctx, name, buf[:n])
}

// Call calls name with args and decodes the result as R.
// A result shorter than R fails with ErrShortResult.
func Call[R Primitive](ctx context.Context, c *Client, name string, args ...interface{}) (r R, err error) {
	result, err := c.Do(ctx, name, args...)
	if err != nil {
		return r, err
	}
	if len(result) < SizeOf[R]() {
		return r, fmt.Errorf("%w: %s returned %d bytes, expect %d", ErrShortResult, name, len(result), SizeOf[R]())
	}
	return Deserialize[R](result), nil
}

// Stream sends a fire-and-forget call. It returns once the frame is written.
func (c *Client) Stream(name string, args ...interface{}) error {
	var buf [MaxBodySize]byte
	n, err := packArgs(buf[:], args)
	if err != nil {
		return err
	}
	return c.StreamRaw(name, buf[:n])
}

// StreamRaw sends a fire-and-forget call with packed args.
func (c *Client) StreamRaw(name string, args []byte) error {
	return c.send(name, args, c.nextSeq(), protocol.KindStream)
}

func packArgs(buf []byte, args []interface{}) (int, error) {
	schema, err := SchemaOf(args...)
	if err != nil {
		return 0, err
	}
	if schema.Size() > len(buf) {
		return 0, protocol.ErrPayloadTooLarge
	}
	return schema.Encode(buf, args...)
}
