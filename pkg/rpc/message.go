package rpc

import (
	"bytes"

	"github.com/robotalks/srpc/pkg/protocol"
)

// MaxNameLen bounds the length of a function name.
const MaxNameLen = 32

// MaxBodySize is the room for name and arguments in one payload.
const MaxBodySize = protocol.MaxPayloadSize - protocol.PayloadHeaderSize

// Message is the RPC view of a valid packet.
// Args is a view into the packet payload, it's not owned.
type Message struct {
	Kind protocol.Kind
	Seq  protocol.Seq
	Name string
	Args []byte
}

// ParseMessage extracts the function name and argument bytes.
func ParseMessage(pkt *protocol.Packet) (msg Message, err error) {
	if !pkt.Valid || pkt.Received < protocol.PayloadHeaderSize {
		return msg, ErrMalformed
	}
	msg.Kind, msg.Seq = pkt.Kind, pkt.Seq
	body := pkt.Body()
	end := bytes.IndexByte(body, 0)
	if end < 0 || end > MaxNameLen {
		return msg, ErrMalformed
	}
	msg.Name, msg.Args = string(body[:end]), body[end+1:]
	return msg, nil
}

// encodeBody writes name, NUL and args into buf.
func encodeBody(buf []byte, name string, args []byte) (int, error) {
	if len(name) > MaxNameLen {
		return 0, ErrInvalidName
	}
	size := len(name) + 1 + len(args)
	if size > len(buf) {
		return 0, protocol.ErrPayloadTooLarge
	}
	n := copy(buf, name)
	buf[n] = 0
	n++
	n += copy(buf[n:], args)
	return n, nil
}

func validName(name string) bool {
	return name != "" && len(name) <= MaxNameLen && bytes.IndexByte([]byte(name), 0) < 0
}
