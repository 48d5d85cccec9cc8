package protocol

// PacketHandler is called when a valid packet is received.
// The packet is owned by the Parser and only valid during the call,
// handlers must copy whatever they retain and must not block.
type PacketHandler interface {
	HandlePacket(*Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(*Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(pkt *Packet) {
	f(pkt)
}

// ParserState is the state of the frame parser.
type ParserState int

// Parser states in transition order.
const (
	StateWaitSync     ParserState = iota // hunting for 0xFA
	StateGetLengthLow                    // waiting for len_lo
	StateGetLengthHigh                   // waiting for len_hi
	StateGetHeaderCRC                    // waiting for header crc
	StateWaitDataSync                    // waiting for 0xFB
	StateGetData                         // collecting payload
	StateGetFooterCRC                    // waiting for data crc
	StateGetStopByte                     // waiting for 0xFE
)

var parserStateNames = [...]string{
	"WaitSync",
	"GetLengthLow",
	"GetLengthHigh",
	"GetHeaderCRC",
	"WaitDataSync",
	"GetData",
	"GetFooterCRC",
	"GetStopByte",
}

// String implements fmt.Stringer.
func (s ParserState) String() string {
	if s >= 0 && int(s) < len(parserStateNames) {
		return parserStateNames[s]
	}
	return "Unknown"
}

// Parser assembles frames from a byte stream.
// It is not reentrant: exactly one goroutine may call ProcessByte.
type Parser struct {
	Handler PacketHandler
	// OnDrop is optionally notified when a frame is dropped.
	// The error satisfies errors.Is with ErrFrameCorrupt or ErrFrameTooLarge.
	OnDrop func(error)

	state  ParserState
	packet Packet
	crc    byte
}

// NewParser creates a Parser delivering packets to handler.
func NewParser(handler PacketHandler) *Parser {
	return &Parser{Handler: handler}
}

// State gets the current parser state.
func (p *Parser) State() ParserState {
	return p.state
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.state = StateWaitSync
	p.packet = Packet{}
	p.crc = 0
}

// Abort drops the frame in progress, if any, and reports it to OnDrop.
func (p *Parser) Abort() {
	if p.state != StateWaitSync {
		p.drop(errInterrupted)
	}
}

// ProcessByte consumes one byte. It never blocks and never allocates,
// the Handler runs synchronously when the byte completes a valid frame.
func (p *Parser) ProcessByte(b byte) {
	switch p.state {
	case StateWaitSync:
		if b == syncByte {
			p.Reset()
			p.crc = updateCRC8Byte(0, b)
			p.state = StateGetLengthLow
		}
	case StateGetLengthLow:
		p.packet.Length = uint16(b)
		p.crc = updateCRC8Byte(p.crc, b)
		p.state = StateGetLengthHigh
	case StateGetLengthHigh:
		p.packet.Length |= uint16(b) << 8
		p.crc = updateCRC8Byte(p.crc, b)
		if p.packet.Length > MaxPayloadSize {
			p.drop(errBadLength)
			return
		}
		p.state = StateGetHeaderCRC
	case StateGetHeaderCRC:
		p.packet.HeaderCRC = b
		if b != p.crc {
			p.drop(errHeaderCRC)
			return
		}
		p.crc = 0
		p.state = StateWaitDataSync
	case StateWaitDataSync:
		if b != dataSyncByte {
			p.drop(errDataSync)
			return
		}
		if p.packet.Length == 0 {
			p.state = StateGetFooterCRC
		} else {
			p.state = StateGetData
		}
	case StateGetData:
		p.packet.Payload[p.packet.Received] = b
		p.packet.Received++
		p.crc = updateCRC8Byte(p.crc, b)
		switch p.packet.Received {
		case 1:
			p.packet.Kind = Kind(b)
		case 2:
			p.packet.Seq = Seq(b)
		}
		if p.packet.Received == int(p.packet.Length) {
			p.state = StateGetFooterCRC
		}
	case StateGetFooterCRC:
		p.packet.FooterCRC = b
		if b != p.crc {
			p.drop(errDataCRC)
			return
		}
		p.state = StateGetStopByte
	case StateGetStopByte:
		if b != stopByte {
			p.drop(errStopByte)
			return
		}
		p.packet.Valid = true
		if h := p.Handler; h != nil {
			h.HandlePacket(&p.packet)
		}
		p.Reset()
	}
}

func (p *Parser) drop(err error) {
	p.Reset()
	if fn := p.OnDrop; fn != nil {
		fn(err)
	}
}
