package link

import (
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/srpc/pkg/protocol"
)

// Router dispatches packets by kind.
type Router struct {
	Service protocol.PacketHandler
	Client  protocol.PacketHandler

	frames  atomic.Uint64
	unknown atomic.Uint64
}

// HandlePacket implements protocol.PacketHandler.
func (r *Router) HandlePacket(pkt *protocol.Packet) {
	r.frames.Add(1)
	glog.V(2).Infof("RCV %s", pkt)
	var h protocol.PacketHandler
	switch pkt.Kind {
	case protocol.KindRequest, protocol.KindStream:
		h = r.Service
	case protocol.KindResponse, protocol.KindError:
		h = r.Client
	}
	if h == nil {
		r.unknown.Add(1)
		glog.V(2).Infof("no route for %s", pkt)
		return
	}
	h.HandlePacket(pkt)
}
