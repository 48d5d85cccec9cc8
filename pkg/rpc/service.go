package rpc

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/srpc/pkg/protocol"
)

// PingFunction is the built-in function answering 1.
const PingFunction = "rpc.ping"

type handlerEntry struct {
	name  string
	sig   Signature
	fn    HandlerFunc
	calls atomic.Uint64
}

// FunctionInfo describes a registered function.
type FunctionInfo struct {
	Name      string
	Signature Signature
	Calls     uint64
}

// Service dispatches Request/Stream packets to registered functions.
// Functions are registered during setup, before packets are dispatched.
type Service struct {
	Sender *protocol.Sender

	handlers map[string]*handlerEntry

	requests atomic.Uint64
	streams  atomic.Uint64
	failures atomic.Uint64
}

// NewService creates a Service replying with sender.
func NewService(sender *protocol.Sender) *Service {
	s := &Service{
		Sender:   sender,
		handlers: make(map[string]*handlerEntry),
	}
	s.MustRegister(PingFunction, Func0(func() uint8 { return 1 }))
	return s
}

// Register adds a function.
func (s *Service) Register(name string, b Binding) error {
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if b.Invoke == nil {
		return fmt.Errorf("%w: %q has no handler", ErrBadArguments, name)
	}
	if b.Signature.Args.Size() > MaxBodySize-len(name)-1 {
		return fmt.Errorf("%w: %q arguments exceed payload", protocol.ErrPayloadTooLarge, name)
	}
	if b.Signature.Result.Size() > MaxBodySize-1 {
		return fmt.Errorf("%w: %q result exceeds payload", protocol.ErrPayloadTooLarge, name)
	}
	if _, exist := s.handlers[name]; exist {
		return fmt.Errorf("%w: %q", ErrDuplicated, name)
	}
	s.handlers[name] = &handlerEntry{name: name, sig: b.Signature, fn: b.Invoke}
	return nil
}

// MustRegister registers a function and panics on error.
func (s *Service) MustRegister(name string, b Binding) {
	if err := s.Register(name, b); err != nil {
		panic(err)
	}
}

// Functions lists the registered functions sorted by name.
func (s *Service) Functions() []FunctionInfo {
	infos := make([]FunctionInfo, 0, len(s.handlers))
	for _, h := range s.handlers {
		infos = append(infos, FunctionInfo{Name: h.name, Signature: h.sig, Calls: h.calls.Load()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// HandlePacket implements protocol.PacketHandler.
// Response and Error packets are not handled here.
func (s *Service) HandlePacket(pkt *protocol.Packet) {
	if !pkt.Valid {
		return
	}
	switch pkt.Kind {
	case protocol.KindRequest:
		s.requests.Add(1)
	case protocol.KindStream:
		s.streams.Add(1)
	default:
		return
	}
	msg, err := ParseMessage(pkt)
	if err != nil {
		s.fail(pkt.Kind, pkt.Seq, err.Error())
		return
	}
	h := s.handlers[msg.Name]
	if h == nil {
		s.fail(msg.Kind, msg.Seq, ErrUnknownFunction.Error()+": "+msg.Name)
		return
	}
	if size := h.sig.Args.Size(); len(msg.Args) < size {
		s.fail(msg.Kind, msg.Seq, fmt.Sprintf("%v: %s%s needs %d bytes, got %d",
			ErrBadArguments, msg.Name, h.sig, size, len(msg.Args)))
		return
	}

	var result [MaxBodySize]byte
	// byte 0 is the empty function name of the reply.
	n, err := h.invoke(msg.Args, result[1:])
	if err != nil {
		s.fail(msg.Kind, msg.Seq, err.Error())
		return
	}
	if msg.Kind == protocol.KindStream {
		return
	}
	if err = s.Sender.Send(result[:n+1], msg.Seq, protocol.KindResponse); err != nil {
		glog.Errorf("send response %s#%d error: %v", msg.Name, msg.Seq, err)
	}
}

func (h *handlerEntry) invoke(args, result []byte) (n int, err error) {
	h.calls.Add(1)
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("function %s panic: %v", h.name, r)
			n, err = 0, fmt.Errorf("%s panic: %v", h.name, r)
		}
	}()
	if n, err = h.fn(args, result); err == nil && (n < 0 || n > len(result)) {
		n, err = 0, fmt.Errorf("%w: %s returned %d result bytes", ErrBadArguments, h.name, n)
	}
	return n, err
}

// fail replies an Error for a request and drops a stream silently.
func (s *Service) fail(kind protocol.Kind, seq protocol.Seq, reason string) {
	s.failures.Add(1)
	if kind != protocol.KindRequest {
		glog.V(2).Infof("drop %s#%d: %s", kind, seq, reason)
		return
	}
	var buf [MaxBodySize]byte
	n := 1 + copy(buf[1:], reason)
	if err := s.Sender.Send(buf[:n], seq, protocol.KindError); err != nil {
		glog.Errorf("send error reply #%d error: %v", seq, err)
	}
}

// ServiceStats are counters of a Service.
type ServiceStats struct {
	Requests uint64
	Streams  uint64
	Failures uint64
}

// Stats gets the current counters.
func (s *Service) Stats() ServiceStats {
	return ServiceStats{
		Requests: s.requests.Load(),
		Streams:  s.streams.Load(),
		Failures: s.failures.Load(),
	}
}

// Process runs periodic housekeeping. It never touches packet handling.
func (s *Service) Process() {
	if glog.V(3) {
		st := s.Stats()
		glog.Infof("service: %d requests, %d streams, %d failures", st.Requests, st.Streams, st.Failures)
	}
}
