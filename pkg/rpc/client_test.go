package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/srpc/pkg/protocol"
)

func TestCallAdd(t *testing.T) {
	lb := newLoopback()
	lb.service.MustRegister("add", Func2(func(a, b int32) int32 { return a + b }))

	r, err := Call[int32](context.Background(), lb.client, "add", int32(2), int32(3))
	require.NoError(t, err)
	require.Equal(t, int32(5), r)

	r, err = Call[int32](context.Background(), lb.client, "add", int32(-7), int32(3))
	require.NoError(t, err)
	require.Equal(t, int32(-4), r)
	require.Equal(t, ServiceStats{Requests: 2}, lb.service.Stats())
}

func TestCallUnknownFunction(t *testing.T) {
	lb := newLoopback()
	_, err := lb.client.Do(context.Background(), "foo")
	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	require.Contains(t, remoteErr.Message, "function not found")
	require.Contains(t, remoteErr.Message, "foo")
	require.Equal(t, ErrorKindRemoteError, KindOf(err))
	require.Equal(t, uint64(1), lb.service.Stats().Failures)
}

func TestCallBadArguments(t *testing.T) {
	lb := newLoopback()
	lb.service.MustRegister("add", Func2(func(a, b int32) int32 { return a + b }))
	_, err := Call[int32](context.Background(), lb.client, "add", int32(2))
	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	require.Contains(t, remoteErr.Message, "bad arguments")
}

func TestCallShortResult(t *testing.T) {
	lb := newLoopback()
	lb.service.MustRegister("nothing", Proc0(func() {}))
	_, err := Call[int32](context.Background(), lb.client, "nothing")
	require.True(t, errors.Is(err, ErrShortResult))

	result, err := lb.client.Do(context.Background(), "nothing")
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestCallPing(t *testing.T) {
	lb := newLoopback()
	r, err := Call[uint8](context.Background(), lb.client, PingFunction)
	require.NoError(t, err)
	require.Equal(t, uint8(1), r)
}

func TestCallTimeoutAndRecover(t *testing.T) {
	lb := newLoopback()
	lb.client.Timeout = 50 * time.Millisecond
	lb.service.MustRegister("add", Func2(func(a, b int32) int32 { return a + b }))
	// lose the stop byte of the first response.
	lb.toHost.drop = func(n int) bool { return n == 13 }

	_, err := Call[int32](context.Background(), lb.client, "add", int32(2), int32(3))
	require.True(t, errors.Is(err, ErrResponseTimeout))
	require.Equal(t, ErrorKindResponseTimeout, KindOf(err))
	require.Equal(t, protocol.StateGetStopByte, lb.toHost.parser.State())

	// the line goes idle and the partial frame is abandoned.
	lb.toHost.parser.Abort()
	r, err := Call[int32](context.Background(), lb.client, "add", int32(20), int32(22))
	require.NoError(t, err)
	require.Equal(t, int32(42), r)
}

func TestCallContextCanceled(t *testing.T) {
	lb := newLoopback()
	lb.toDevice.drop = func(int) bool { return true }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := lb.client.Do(ctx, PingFunction)
	require.Equal(t, context.Canceled, err)
}

func TestStreamRunsOnce(t *testing.T) {
	lb := newLoopback()
	var calls []bool
	lb.service.MustRegister("set_led", Proc1(func(on bool) { calls = append(calls, on) }))

	require.NoError(t, lb.client.Stream("set_led", true))
	require.Equal(t, []bool{true}, calls)
	require.Zero(t, lb.toHost.written)
	require.Equal(t, ServiceStats{Streams: 1}, lb.service.Stats())

	// failing streams are never answered either.
	require.NoError(t, lb.client.Stream("foo"))
	require.NoError(t, lb.client.Stream("set_led"))
	require.Zero(t, lb.toHost.written)
	require.Len(t, calls, 1)
}

func TestCallDiscardsStale(t *testing.T) {
	client := NewClient(nil)
	client.Sender = protocol.NewSender(&scriptedWriter{
		client: client,
		reply: func(kind protocol.Kind, seq protocol.Seq) []*protocol.Packet {
			return []*protocol.Packet{
				makePacket(protocol.KindResponse, seq-1, []byte{0, 1}),
				makePacket(protocol.KindError, seq+1, []byte("\x00late")),
				makePacket(protocol.KindResponse, seq, []byte{0, 7}),
			}
		},
	})
	r, err := Call[uint8](context.Background(), client, "get")
	require.NoError(t, err)
	require.Equal(t, uint8(7), r)
	require.Equal(t, ClientStats{Stale: 2}, client.Stats())
}

func TestCallLateResponseDiscarded(t *testing.T) {
	client := NewClient(nil)
	client.Timeout = 20 * time.Millisecond
	var late *protocol.Packet
	client.Sender = protocol.NewSender(&scriptedWriter{
		client: client,
		reply: func(kind protocol.Kind, seq protocol.Seq) []*protocol.Packet {
			if late == nil {
				late = makePacket(protocol.KindResponse, seq, []byte{0, 1})
				return nil
			}
			return []*protocol.Packet{makePacket(protocol.KindResponse, seq, []byte{0, 2})}
		},
	})
	_, err := Call[uint8](context.Background(), client, "get")
	require.True(t, errors.Is(err, ErrResponseTimeout))
	client.HandlePacket(late)

	r, err := Call[uint8](context.Background(), client, "get")
	require.NoError(t, err)
	require.Equal(t, uint8(2), r)
	require.Equal(t, uint64(1), client.Stats().Stale)
}

func TestClientQueueFull(t *testing.T) {
	client := NewClient(nil)
	for n := 0; n <= ResponseQueueSize; n++ {
		client.HandlePacket(makePacket(protocol.KindResponse, protocol.Seq(n), []byte{0}))
	}
	require.Equal(t, uint64(1), client.Stats().Dropped)

	// requests and invalid packets are ignored.
	client = NewClient(nil)
	client.HandlePacket(makePacket(protocol.KindRequest, 0, []byte("add\x00")))
	pkt := makePacket(protocol.KindResponse, 0, []byte{0})
	pkt.Valid = false
	client.HandlePacket(pkt)
	require.Empty(t, client.responses)
}

func TestClientSequence(t *testing.T) {
	var seqs []protocol.Seq
	client := NewClient(nil)
	client.Sender = protocol.NewSender(&scriptedWriter{
		client: client,
		reply: func(kind protocol.Kind, seq protocol.Seq) []*protocol.Packet {
			seqs = append(seqs, seq)
			if kind == protocol.KindStream {
				return nil
			}
			return []*protocol.Packet{makePacket(protocol.KindResponse, seq, []byte{0})}
		},
	})
	for n := 0; n < 300; n++ {
		if n%2 == 0 {
			require.NoError(t, client.Stream("s"))
		} else {
			_, err := client.Do(context.Background(), "r")
			require.NoError(t, err)
		}
	}
	require.Len(t, seqs, 300)
	for n, seq := range seqs {
		require.Equal(t, protocol.Seq(n), seq)
	}
}

func TestClientSendErrors(t *testing.T) {
	client := NewClient(protocol.NewSender(&wire{parser: protocol.NewParser(nil)}))
	_, err := client.Do(context.Background(), "")
	require.Equal(t, ErrInvalidName, err)
	err = client.StreamRaw("big", make([]byte, MaxBodySize))
	require.Equal(t, protocol.ErrPayloadTooLarge, err)
	err = client.Stream("s", "string")
	require.True(t, errors.Is(err, ErrBadArguments))
}
