package calls

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/srpc/pkg/rpc"
)

// CallSpec is a parsed command line call:
//
//	NAME [TYPE:VALUE ...] [-> TYPE[,TYPE...]]
type CallSpec struct {
	Name   string
	Args   []interface{}
	Result rpc.Schema
}

// ParseValue parses TYPE:VALUE, e.g. i32:-5, f32:1.5, bool:true.
func ParseValue(str string) (interface{}, error) {
	pos := strings.IndexByte(str, ':')
	if pos < 0 {
		return nil, fmt.Errorf("%q: expect TYPE:VALUE", str)
	}
	typ, err := rpc.ParseType(str[:pos])
	if err != nil {
		return nil, err
	}
	val := str[pos+1:]
	switch typ {
	case rpc.TypeBool:
		return strconv.ParseBool(val)
	case rpc.TypeFloat32:
		f, err := strconv.ParseFloat(val, 32)
		return float32(f), err
	case rpc.TypeFloat64:
		return strconv.ParseFloat(val, 64)
	case rpc.TypeInt8, rpc.TypeInt16, rpc.TypeInt32, rpc.TypeInt64:
		i, err := strconv.ParseInt(val, 0, typ.Size()*8)
		if err != nil {
			return nil, err
		}
		switch typ {
		case rpc.TypeInt8:
			return int8(i), nil
		case rpc.TypeInt16:
			return int16(i), nil
		case rpc.TypeInt32:
			return int32(i), nil
		}
		return i, nil
	default:
		u, err := strconv.ParseUint(val, 0, typ.Size()*8)
		if err != nil {
			return nil, err
		}
		switch typ {
		case rpc.TypeUint8:
			return uint8(u), nil
		case rpc.TypeUint16:
			return uint16(u), nil
		case rpc.TypeUint32:
			return uint32(u), nil
		}
		return u, nil
	}
}

// ParseCall parses command arguments into a CallSpec.
func ParseCall(args []string) (*CallSpec, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("NAME required")
	}
	spec := &CallSpec{Name: args[0]}
	args = args[1:]
	for n, arg := range args {
		if arg == "->" {
			if n+2 != len(args) {
				return nil, fmt.Errorf("expect a single result schema after ->")
			}
			result, err := rpc.ParseSchema(args[n+1])
			if err != nil {
				return nil, err
			}
			spec.Result = result
			break
		}
		val, err := ParseValue(arg)
		if err != nil {
			return nil, err
		}
		spec.Args = append(spec.Args, val)
	}
	return spec, nil
}
