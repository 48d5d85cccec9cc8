package rpc

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"
)

// Type describes a fixed-width primitive on the wire.
type Type byte

// Primitive types.
const (
	TypeBool Type = iota + 1
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
)

var typeInfo = [...]struct {
	name string
	size int
	kind reflect.Kind
}{
	TypeBool:    {"bool", 1, reflect.Bool},
	TypeInt8:    {"i8", 1, reflect.Int8},
	TypeUint8:   {"u8", 1, reflect.Uint8},
	TypeInt16:   {"i16", 2, reflect.Int16},
	TypeUint16:  {"u16", 2, reflect.Uint16},
	TypeInt32:   {"i32", 4, reflect.Int32},
	TypeUint32:  {"u32", 4, reflect.Uint32},
	TypeInt64:   {"i64", 8, reflect.Int64},
	TypeUint64:  {"u64", 8, reflect.Uint64},
	TypeFloat32: {"f32", 4, reflect.Float32},
	TypeFloat64: {"f64", 8, reflect.Float64},
}

// IsValid checks if it's a known type.
func (t Type) IsValid() bool {
	return t >= TypeBool && t <= TypeFloat64
}

// Size returns the number of bytes on the wire.
func (t Type) Size() int {
	if !t.IsValid() {
		return 0
	}
	return typeInfo[t].size
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("type(%d)", byte(t))
	}
	return typeInfo[t].name
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid type %d", byte(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) (err error) {
	*t, err = ParseType(string(text))
	return
}

// ParseType parses the short type name, e.g. "i32".
func ParseType(name string) (Type, error) {
	for t := TypeBool; t <= TypeFloat64; t++ {
		if typeInfo[t].name == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown type %q", name)
}

func typeOfKind(k reflect.Kind) Type {
	for t := TypeBool; t <= TypeFloat64; t++ {
		if typeInfo[t].kind == k {
			return t
		}
	}
	return 0
}

// Primitive is the set of Go types carried as arguments and results.
type Primitive interface {
	~bool | ~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int64 | ~uint64 | ~float32 | ~float64
}

// TypeOf returns the wire type of T.
func TypeOf[T Primitive]() Type {
	var v T
	return typeOfKind(reflect.TypeOf(v).Kind())
}

// SizeOf returns the wire size of T.
func SizeOf[T Primitive]() int {
	return TypeOf[T]().Size()
}

// Serialize writes v into buf and returns the bytes written.
// buf must hold at least SizeOf[T]() bytes.
func Serialize[T Primitive](buf []byte, v T) int {
	rv := reflect.ValueOf(v)
	t := typeOfKind(rv.Kind())
	putBits(buf, t, bitsOf(t, rv))
	return t.Size()
}

// Deserialize reads a T from buf.
// buf must hold at least SizeOf[T]() bytes.
func Deserialize[T Primitive](buf []byte) T {
	var v T
	rv := reflect.ValueOf(&v).Elem()
	t := typeOfKind(rv.Kind())
	setBits(rv, t, getBits(buf, t))
	return v
}

func bitsOf(t Type, rv reflect.Value) uint64 {
	switch t {
	case TypeBool:
		if rv.Bool() {
			return 1
		}
		return 0
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return uint64(rv.Int())
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return rv.Uint()
	case TypeFloat32:
		return uint64(math.Float32bits(float32(rv.Float())))
	case TypeFloat64:
		return math.Float64bits(rv.Float())
	}
	return 0
}

func setBits(rv reflect.Value, t Type, bits uint64) {
	switch t {
	case TypeBool:
		rv.SetBool(bits != 0)
	case TypeInt8:
		rv.SetInt(int64(int8(bits)))
	case TypeInt16:
		rv.SetInt(int64(int16(bits)))
	case TypeInt32:
		rv.SetInt(int64(int32(bits)))
	case TypeInt64:
		rv.SetInt(int64(bits))
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		rv.SetUint(bits)
	case TypeFloat32:
		rv.SetFloat(float64(math.Float32frombits(uint32(bits))))
	case TypeFloat64:
		rv.SetFloat(math.Float64frombits(bits))
	}
}

func putBits(buf []byte, t Type, bits uint64) {
	switch t.Size() {
	case 1:
		buf[0] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(buf, bits)
	}
}

func getBits(buf []byte, t Type) uint64 {
	switch t.Size() {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf))
	case 8:
		return binary.LittleEndian.Uint64(buf)
	}
	return 0
}

// canonical converts decoded bits to the plain Go type of t.
func canonical(t Type, bits uint64) interface{} {
	switch t {
	case TypeBool:
		return bits != 0
	case TypeInt8:
		return int8(bits)
	case TypeUint8:
		return uint8(bits)
	case TypeInt16:
		return int16(bits)
	case TypeUint16:
		return uint16(bits)
	case TypeInt32:
		return int32(bits)
	case TypeUint32:
		return uint32(bits)
	case TypeInt64:
		return int64(bits)
	case TypeUint64:
		return bits
	case TypeFloat32:
		return math.Float32frombits(uint32(bits))
	case TypeFloat64:
		return math.Float64frombits(bits)
	}
	return nil
}

// Schema is an ordered list of primitive types packed without padding.
type Schema []Type

// SchemaOf infers the schema of values.
func SchemaOf(values ...interface{}) (Schema, error) {
	s := make(Schema, len(values))
	for n, v := range values {
		if v == nil {
			return nil, fmt.Errorf("%w: argument %d is nil", ErrBadArguments, n)
		}
		if s[n] = typeOfKind(reflect.TypeOf(v).Kind()); s[n] == 0 {
			return nil, fmt.Errorf("%w: argument %d has unsupported type %T", ErrBadArguments, n, v)
		}
	}
	return s, nil
}

// ParseSchema parses comma separated type names, e.g. "i32,i32".
func ParseSchema(str string) (Schema, error) {
	var s Schema
	for _, name := range strings.Split(str, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		t, err := ParseType(name)
		if err != nil {
			return nil, err
		}
		s = append(s, t)
	}
	return s, nil
}

// Size is the total number of bytes of the packed tuple.
func (s Schema) Size() (size int) {
	for _, t := range s {
		size += t.Size()
	}
	return
}

// Offsets returns the offset of each element: the sum of the sizes
// of all preceding elements.
func (s Schema) Offsets() []int {
	offsets := make([]int, len(s))
	var off int
	for n, t := range s {
		offsets[n] = off
		off += t.Size()
	}
	return offsets
}

// String implements fmt.Stringer.
func (s Schema) String() string {
	names := make([]string, len(s))
	for n, t := range s {
		names[n] = t.String()
	}
	return strings.Join(names, ",")
}

// Encode packs values into buf and returns the bytes written.
func (s Schema) Encode(buf []byte, values ...interface{}) (int, error) {
	if len(values) != len(s) {
		return 0, fmt.Errorf("%w: expect %d values, got %d", ErrBadArguments, len(s), len(values))
	}
	if len(buf) < s.Size() {
		return 0, io.ErrShortBuffer
	}
	var off int
	for n, t := range s {
		if values[n] == nil {
			return 0, fmt.Errorf("%w: value %d is nil", ErrBadArguments, n)
		}
		rv := reflect.ValueOf(values[n])
		if rv.Kind() != typeInfo[t].kind {
			return 0, fmt.Errorf("%w: value %d is %T, expect %s", ErrBadArguments, n, values[n], t)
		}
		putBits(buf[off:], t, bitsOf(t, rv))
		off += t.Size()
	}
	return off, nil
}

// Decode unpacks buf into plain Go values (bool, int8, ..., float64).
func (s Schema) Decode(buf []byte) ([]interface{}, error) {
	if len(buf) < s.Size() {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrBadArguments, s.Size(), len(buf))
	}
	values := make([]interface{}, len(s))
	var off int
	for n, t := range s {
		values[n] = canonical(t, getBits(buf[off:], t))
		off += t.Size()
	}
	return values, nil
}

// Signature describes a registered function.
type Signature struct {
	Args   Schema
	Result Schema
}

// String implements fmt.Stringer.
func (s Signature) String() string {
	str := "(" + s.Args.String() + ")"
	if len(s.Result) > 0 {
		str += " " + s.Result.String()
	}
	return str
}
