package transport

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

var _ outputResetter = serial.Port(nil)

// DefaultBaudRate is used when a serial link doesn't specify one.
const DefaultBaudRate = 115200

func init() {
	RegisterScheme("serial", openSerial)
}

var (
	parities = map[string]serial.Parity{
		"none":  serial.NoParity,
		"odd":   serial.OddParity,
		"even":  serial.EvenParity,
		"mark":  serial.MarkParity,
		"space": serial.SpaceParity,
	}
	stopBits = map[string]serial.StopBits{
		"1":   serial.OneStopBit,
		"1.5": serial.OnePointFiveStopBits,
		"2":   serial.TwoStopBits,
	}
)

// SerialMode parses serial settings from link URL query values:
// baud, databits, parity (none, odd, even, mark, space) and stopbits (1, 1.5, 2).
func SerialMode(q url.Values) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	var err error
	if str := q.Get("baud"); str != "" {
		if mode.BaudRate, err = strconv.Atoi(str); err != nil || mode.BaudRate <= 0 {
			return nil, fmt.Errorf("%w: invalid baud %q", ErrInvalidLink, str)
		}
	}
	if str := q.Get("databits"); str != "" {
		if mode.DataBits, err = strconv.Atoi(str); err != nil || mode.DataBits < 5 || mode.DataBits > 8 {
			return nil, fmt.Errorf("%w: invalid databits %q", ErrInvalidLink, str)
		}
	}
	if str := q.Get("parity"); str != "" {
		p, ok := parities[str]
		if !ok {
			return nil, fmt.Errorf("%w: invalid parity %q", ErrInvalidLink, str)
		}
		mode.Parity = p
	}
	if str := q.Get("stopbits"); str != "" {
		s, ok := stopBits[str]
		if !ok {
			return nil, fmt.Errorf("%w: invalid stopbits %q", ErrInvalidLink, str)
		}
		mode.StopBits = s
	}
	return mode, nil
}

func openSerial(ctx context.Context, u *url.URL) (Port, error) {
	name := u.Host + u.Path
	if name == "" {
		name = u.Opaque
	}
	if name == "" {
		return nil, fmt.Errorf("%w: serial device missing", ErrInvalidLink)
	}
	q := u.Query()
	mode, err := SerialMode(q)
	if err != nil {
		return nil, err
	}
	var readTimeout time.Duration
	if str := q.Get("read_timeout"); str != "" {
		if readTimeout, err = time.ParseDuration(str); err != nil {
			return nil, fmt.Errorf("%w: invalid read_timeout %q", ErrInvalidLink, str)
		}
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if readTimeout > 0 {
		if err = port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, err
		}
	}
	glog.Infof("opened %s at %d baud", name, mode.BaudRate)
	return NewStream(port), nil
}
