package protocol

import "fmt"

// Frame layout constants.
const (
	// MaxPayloadSize is the fixed payload capacity of a Packet.
	MaxPayloadSize = 128
	// FrameOverhead is the number of framing bytes around a payload.
	FrameOverhead = 7
	// MaxFrameSize is the largest frame on the wire.
	MaxFrameSize = MaxPayloadSize + FrameOverhead
	// PayloadHeaderSize is the kind and sequence bytes leading a payload.
	PayloadHeaderSize = 2

	syncByte     byte = 0xFA
	dataSyncByte byte = 0xFB
	stopByte     byte = 0xFE
)

// Kind identifies the message kind carried in payload[0].
type Kind byte

// Message kinds.
const (
	KindRequest  Kind = 0x0B
	KindStream   Kind = 0x0C
	KindResponse Kind = 0x16
	KindError    Kind = 0x21
)

// IsValid checks if it's a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindRequest, KindStream, KindResponse, KindError:
		return true
	}
	return false
}

// IsReply determines if the kind answers a request.
func (k Kind) IsReply() bool {
	return k == KindResponse || k == KindError
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindStream:
		return "stream"
	case KindResponse:
		return "response"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("kind(0x%02x)", byte(k))
}

// Seq is the sequence number correlating a request with its reply.
// It wraps modulo 256.
type Seq byte

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	return s + 1
}

// Packet is one frame being received or completely received.
// It never allocates: the payload lives in a fixed array.
type Packet struct {
	Payload   [MaxPayloadSize]byte
	Length    uint16 // declared payload length
	Received  int    // payload bytes collected so far
	HeaderCRC byte
	FooterCRC byte
	Seq       Seq
	Kind      Kind
	Valid     bool
}

// Data returns the payload bytes collected.
func (p *Packet) Data() []byte {
	return p.Payload[:p.Received]
}

// Body returns the payload after the kind and sequence bytes.
func (p *Packet) Body() []byte {
	if p.Received <= PayloadHeaderSize {
		return nil
	}
	return p.Payload[PayloadHeaderSize:p.Received]
}

// String implements fmt.Stringer.
func (p *Packet) String() string {
	return fmt.Sprintf("%s#%d len=%d valid=%v", p.Kind, p.Seq, p.Received, p.Valid)
}

// EncodeFrame writes the frame for payload into buf and returns the frame bytes.
// buf must hold at least len(payload)+FrameOverhead bytes.
func EncodeFrame(buf, payload []byte) ([]byte, error) {
	l := len(payload)
	if l > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	frame := buf[:l+FrameOverhead]
	frame[0], frame[1], frame[2] = syncByte, byte(l), byte(l>>8)
	frame[3] = CRC8(frame[:3])
	frame[4] = dataSyncByte
	copy(frame[5:], payload)
	frame[5+l] = CRC8(payload)
	frame[6+l] = stopByte
	return frame, nil
}
