package rpc

import (
	"time"

	"github.com/robotalks/srpc/pkg/protocol"
)

// wire delivers every written byte straight into the peer parser.
type wire struct {
	parser *protocol.Parser
	// drop tells whether the n-th byte written is lost.
	drop    func(n int) bool
	written int
}

func (w *wire) WriteTimeout(p []byte, timeout time.Duration) error {
	for _, b := range p {
		n := w.written
		w.written++
		if w.drop != nil && w.drop(n) {
			continue
		}
		w.parser.ProcessByte(b)
	}
	return nil
}

type loopback struct {
	client   *Client
	service  *Service
	toDevice *wire
	toHost   *wire
}

func newLoopback() *loopback {
	lb := &loopback{toDevice: &wire{}, toHost: &wire{}}
	lb.client = NewClient(protocol.NewSender(lb.toDevice))
	lb.service = NewService(protocol.NewSender(lb.toHost))
	lb.toDevice.parser = protocol.NewParser(lb.service)
	lb.toHost.parser = protocol.NewParser(lb.client)
	return lb
}

// scriptedWriter answers each request frame with packets made by reply.
type scriptedWriter struct {
	client *Client
	reply  func(kind protocol.Kind, seq protocol.Seq) []*protocol.Packet
}

func (w *scriptedWriter) WriteTimeout(p []byte, timeout time.Duration) error {
	payload := p[protocol.FrameOverhead-2 : len(p)-2]
	for _, pkt := range w.reply(protocol.Kind(payload[0]), protocol.Seq(payload[1])) {
		w.client.HandlePacket(pkt)
	}
	return nil
}
