package rpc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/srpc/pkg/protocol"
)

func makePacket(kind protocol.Kind, seq protocol.Seq, body []byte) *protocol.Packet {
	pkt := &protocol.Packet{Kind: kind, Seq: seq, Valid: true}
	pkt.Payload[0], pkt.Payload[1] = byte(kind), byte(seq)
	n := copy(pkt.Payload[protocol.PayloadHeaderSize:], body) + protocol.PayloadHeaderSize
	pkt.Received, pkt.Length = n, uint16(n)
	return pkt
}

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage(makePacket(protocol.KindRequest, 9, []byte("add\x00\x02\x00\x00\x00\x03\x00\x00\x00")))
	require.NoError(t, err)
	require.Equal(t, protocol.KindRequest, msg.Kind)
	require.Equal(t, protocol.Seq(9), msg.Seq)
	require.Equal(t, "add", msg.Name)
	require.Equal(t, []byte{2, 0, 0, 0, 3, 0, 0, 0}, msg.Args)

	msg, err = ParseMessage(makePacket(protocol.KindResponse, 1, []byte{0, 5, 0, 0, 0}))
	require.NoError(t, err)
	require.Empty(t, msg.Name)
	require.Equal(t, []byte{5, 0, 0, 0}, msg.Args)

	msg, err = ParseMessage(makePacket(protocol.KindStream, 1, []byte("set_led\x00")))
	require.NoError(t, err)
	require.Equal(t, "set_led", msg.Name)
	require.Empty(t, msg.Args)

	name := strings.Repeat("n", MaxNameLen)
	msg, err = ParseMessage(makePacket(protocol.KindRequest, 1, []byte(name+"\x00")))
	require.NoError(t, err)
	require.Equal(t, name, msg.Name)
}

func TestParseMessageMalformed(t *testing.T) {
	_, err := ParseMessage(makePacket(protocol.KindRequest, 1, []byte("add")))
	require.Equal(t, ErrMalformed, err)
	_, err = ParseMessage(makePacket(protocol.KindRequest, 1, nil))
	require.Equal(t, ErrMalformed, err)
	_, err = ParseMessage(makePacket(protocol.KindRequest, 1, []byte(strings.Repeat("n", MaxNameLen+1)+"\x00")))
	require.Equal(t, ErrMalformed, err)
	pkt := makePacket(protocol.KindRequest, 1, []byte("add\x00"))
	pkt.Valid = false
	_, err = ParseMessage(pkt)
	require.Equal(t, ErrMalformed, err)
}

func TestEncodeBody(t *testing.T) {
	var buf [MaxBodySize]byte
	n, err := encodeBody(buf[:], "add", []byte{1, 2})
	require.NoError(t, err)
	require.Equal(t, []byte("add\x00\x01\x02"), buf[:n])

	_, err = encodeBody(buf[:], strings.Repeat("n", MaxNameLen+1), nil)
	require.Equal(t, ErrInvalidName, err)
	_, err = encodeBody(buf[:], "big", make([]byte, MaxBodySize-3))
	require.Equal(t, protocol.ErrPayloadTooLarge, err)
	n, err = encodeBody(buf[:], "big", make([]byte, MaxBodySize-4))
	require.NoError(t, err)
	require.Equal(t, MaxBodySize, n)
}

func TestValidName(t *testing.T) {
	require.True(t, validName("add"))
	require.True(t, validName(strings.Repeat("n", MaxNameLen)))
	require.False(t, validName(""))
	require.False(t, validName(strings.Repeat("n", MaxNameLen+1)))
	require.False(t, validName("a\x00b"))
}
