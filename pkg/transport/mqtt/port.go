package mqtt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/srpc/pkg/transport"
)

// Topic suffixes under <prefix><device>/.
const (
	RxTopic = "rx"
	TxTopic = "tx"
)

// ChunkQueueSize is the number of received messages buffered for Read.
const ChunkQueueSize = 64

// ErrPublishTimeout indicates the broker didn't ack a publish in time.
var ErrPublishTimeout = errors.New("publish timeout")

func init() {
	transport.RegisterScheme("mqtt", open)
	transport.RegisterScheme("mqtts", open)
}

// Port implements transport.Port by publishing written frames and
// reading the bytes of received messages in order.
type Port struct {
	Queue    *Queue
	SubTopic string
	PubTopic string
	QoS      byte

	chunks    chan []byte
	pending   []byte
	closed    chan struct{}
	closeOnce sync.Once
	sub       *Subscription
	dropped   atomic.Uint64
}

// NewPort creates a Port for the device using the topics of role.
func NewPort(q *Queue, device, role string) *Port {
	p := &Port{
		Queue:  q,
		chunks: make(chan []byte, ChunkQueueSize),
		closed: make(chan struct{}),
	}
	if role == transport.RoleDevice {
		p.SubTopic, p.PubTopic = device+"/"+RxTopic, device+"/"+TxTopic
	} else {
		p.SubTopic, p.PubTopic = device+"/"+TxTopic, device+"/"+RxTopic
	}
	return p
}

// Start subscribes SubTopic.
func (p *Port) Start(ctx context.Context) error {
	p.sub = p.Queue.Sub(p.SubTopic, p.handleMsg)
	if p.sub.Token == nil {
		return nil
	}
	return waitToken(ctx, p.sub.Token)
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		select {
		case chunk := <-p.chunks:
			p.pending = chunk
		case <-p.closed:
			return 0, io.EOF
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// WriteTimeout implements protocol.FrameWriter.
func (p *Port) WriteTimeout(b []byte, timeout time.Duration) error {
	token := p.Queue.PubWith(p.PubTopic, append([]byte(nil), b...), p.QoS, false)
	if !token.WaitTimeout(timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// Dropped is the number of messages dropped as Read falls behind.
func (p *Port) Dropped() uint64 {
	return p.dropped.Load()
}

// Close implements io.Closer.
func (p *Port) Close() (err error) {
	p.closeOnce.Do(func() {
		close(p.closed)
		if p.sub != nil {
			err = p.sub.Close()
		}
		p.Queue.Close()
	})
	return
}

func (p *Port) handleMsg(_ string, payload []byte) {
	select {
	case p.chunks <- payload:
	default:
		p.dropped.Add(1)
		glog.Warningf("%s: reader falls behind, dropped %d bytes", p.SubTopic, len(payload))
	}
}

func open(ctx context.Context, u *url.URL) (transport.Port, error) {
	device := u.Query().Get("device")
	if device == "" {
		return nil, fmt.Errorf("%w: mqtt device missing", transport.ErrInvalidLink)
	}
	role := transport.Role(u)
	opts, prefix, err := ClientOptionsFromURL(u.String())
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID("srpc:" + role + ":" + device)
	}
	q := NewQueue(opts, prefix)
	if err = q.Connect(ctx); err != nil {
		return nil, err
	}
	port := NewPort(q, device, role)
	if err = port.Start(ctx); err != nil {
		port.Close()
		return nil, err
	}
	glog.Infof("mqtt link %s%s ready", prefix, device)
	return port, nil
}
