package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type ledState bool

func roundTrip[T Primitive](t *testing.T, values ...T) {
	buf := make([]byte, 8)
	for _, v := range values {
		n := Serialize(buf, v)
		require.Equal(t, SizeOf[T](), n)
		require.Equal(t, v, Deserialize[T](buf[:n]))
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	roundTrip(t, true, false)
	roundTrip(t, int8(math.MinInt8), int8(-1), int8(0), int8(math.MaxInt8))
	roundTrip(t, uint8(0), uint8(0xff))
	roundTrip(t, int16(math.MinInt16), int16(-2), int16(math.MaxInt16))
	roundTrip(t, uint16(0), uint16(0xbeef))
	roundTrip(t, int32(math.MinInt32), int32(-5), int32(math.MaxInt32))
	roundTrip(t, uint32(0), uint32(0xdeadbeef))
	roundTrip(t, int64(math.MinInt64), int64(-7), int64(math.MaxInt64))
	roundTrip(t, uint64(0), uint64(math.MaxUint64))
	roundTrip(t, float32(0), float32(-1.5), float32(math.MaxFloat32), float32(math.SmallestNonzeroFloat32))
	roundTrip(t, float64(0), math.Pi, -math.MaxFloat64, math.Inf(1))
	roundTrip(t, ledState(true), ledState(false))
}

func TestSerializeLayout(t *testing.T) {
	buf := make([]byte, 8)
	require.Equal(t, 4, Serialize(buf, int32(0x01020304)))
	require.Equal(t, []byte{4, 3, 2, 1}, buf[:4])
	require.Equal(t, 1, Serialize(buf, true))
	require.Equal(t, byte(1), buf[0])
	require.Equal(t, 4, Serialize(buf, float32(1)))
	require.Equal(t, []byte{0, 0, 0x80, 0x3f}, buf[:4])
}

func TestTypes(t *testing.T) {
	require.Equal(t, TypeInt32, TypeOf[int32]())
	require.Equal(t, TypeBool, TypeOf[ledState]())
	require.Equal(t, 8, SizeOf[float64]())
	for typ := TypeBool; typ <= TypeFloat64; typ++ {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, parsed)
	}
	_, err := ParseType("string")
	require.Error(t, err)
	require.False(t, Type(0).IsValid())
	require.Equal(t, 0, Type(99).Size())
}

func TestSchemaTuple(t *testing.T) {
	schema := Schema{TypeUint8, TypeInt32, TypeBool, TypeFloat64, TypeInt16}
	require.Equal(t, 1+4+1+8+2, schema.Size())
	require.Equal(t, []int{0, 1, 5, 6, 14}, schema.Offsets())
	require.Equal(t, "u8,i32,bool,f64,i16", schema.String())

	values := []interface{}{uint8(7), int32(-100000), true, 2.5, int16(-3)}
	buf := make([]byte, schema.Size())
	n, err := schema.Encode(buf, values...)
	require.NoError(t, err)
	require.Equal(t, schema.Size(), n)
	require.Equal(t, byte(7), buf[0])
	require.Equal(t, int32(-100000), Deserialize[int32](buf[1:]))
	require.Equal(t, true, Deserialize[bool](buf[5:]))
	require.Equal(t, 2.5, Deserialize[float64](buf[6:]))
	require.Equal(t, int16(-3), Deserialize[int16](buf[14:]))

	decoded, err := schema.Decode(buf)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestSchemaErrors(t *testing.T) {
	schema := Schema{TypeInt32, TypeInt32}
	_, err := schema.Encode(make([]byte, 8), int32(1))
	require.True(t, errors.Is(err, ErrBadArguments))
	_, err = schema.Encode(make([]byte, 8), int32(1), int64(2))
	require.True(t, errors.Is(err, ErrBadArguments))
	_, err = schema.Encode(make([]byte, 4), int32(1), int32(2))
	require.Equal(t, io.ErrShortBuffer, err)
	_, err = schema.Decode(make([]byte, 7))
	require.True(t, errors.Is(err, ErrBadArguments))

	_, err = SchemaOf(int32(1), "x")
	require.True(t, errors.Is(err, ErrBadArguments))
	_, err = SchemaOf(nil)
	require.True(t, errors.Is(err, ErrBadArguments))
	s, err := SchemaOf(int32(1), uint8(2), ledState(true), float32(1))
	require.NoError(t, err)
	require.Equal(t, Schema{TypeInt32, TypeUint8, TypeBool, TypeFloat32}, s)
}

func TestParseSchema(t *testing.T) {
	s, err := ParseSchema("i32, i32")
	require.NoError(t, err)
	require.Equal(t, Schema{TypeInt32, TypeInt32}, s)
	s, err = ParseSchema("")
	require.NoError(t, err)
	require.Empty(t, s)
	_, err = ParseSchema("i32,str")
	require.Error(t, err)
}

func TestSignature(t *testing.T) {
	require.Equal(t, "(i32,i32) i32", Signature{Args: Schema{TypeInt32, TypeInt32}, Result: Schema{TypeInt32}}.String())
	require.Equal(t, "(bool)", Signature{Args: Schema{TypeBool}}.String())
	require.Equal(t, "() u8", Func0(func() uint8 { return 0 }).Signature.String())
}

func TestBindings(t *testing.T) {
	result := make([]byte, 8)
	args := make([]byte, 16)

	b := Func2(func(a, b int32) int32 { return a + b })
	require.Equal(t, Schema{TypeInt32, TypeInt32}, b.Signature.Args)
	Serialize(args, int32(2))
	Serialize(args[4:], int32(3))
	n, err := b.Invoke(args, result)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, int32(5), Deserialize[int32](result))

	b = Func3(func(a uint8, b int16, c float32) float64 { return float64(a) + float64(b) + float64(c) })
	require.Equal(t, []int{0, 1, 3}, b.Signature.Args.Offsets())
	args[0] = 1
	Serialize(args[1:], int16(-10))
	Serialize(args[3:], float32(0.5))
	n, err = b.Invoke(args, result)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, -8.5, Deserialize[float64](result))

	var got []bool
	b = Proc1(func(on bool) { got = append(got, on) })
	require.Empty(t, b.Signature.Result)
	args[0] = 1
	n, err = b.Invoke(args, result)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, []bool{true}, got)

	var sum int64
	b = Proc2(func(a int64, b uint8) { sum = a + int64(b) })
	Serialize(args, int64(40))
	args[8] = 2
	_, err = b.Invoke(args, result)
	require.NoError(t, err)
	require.Equal(t, int64(42), sum)

	var called int
	_, err = Proc0(func() { called++ }).Invoke(nil, result)
	require.NoError(t, err)
	require.Equal(t, 1, called)

	n, err = Func1(func(v uint16) uint32 { return uint32(v) * 2 }).Invoke([]byte{0x10, 0x00}, result)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, uint32(0x20), Deserialize[uint32](result))
}

func TestSignatureJSON(t *testing.T) {
	sig := Signature{Args: Schema{TypeInt32, TypeBool}, Result: Schema{TypeFloat32}}
	data, err := json.Marshal(&sig)
	require.NoError(t, err)
	require.JSONEq(t, `{"Args":["i32","bool"],"Result":["f32"]}`, string(data))
	var decoded Signature
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, sig, decoded)
}
