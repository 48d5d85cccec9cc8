// Package device is a simulated device serving a fixed set of functions.
package device

import (
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/srpc/pkg/rpc"
)

// Device is a simulated board with a LED.
type Device struct {
	// Now is the time source, time.Now if nil.
	Now func() time.Time

	started time.Time
	led     atomic.Bool
	toggles atomic.Uint32
}

// New creates a Device.
func New() *Device {
	d := &Device{}
	d.started = d.now()
	return d
}

func (d *Device) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Register adds the device functions to svc:
//
//	add(i32, i32) i32
//	mul(f32, f32) f32
//	set_led(bool)       called as a stream
//	get_led() bool
//	toggles() u32
//	uptime() u32        milliseconds, wraps
func (d *Device) Register(svc *rpc.Service) error {
	bindings := []struct {
		name string
		b    rpc.Binding
	}{
		{"add", rpc.Func2(func(a, b int32) int32 { return a + b })},
		{"mul", rpc.Func2(func(a, b float32) float32 { return a * b })},
		{"set_led", rpc.Proc1(d.SetLED)},
		{"get_led", rpc.Func0(d.LED)},
		{"toggles", rpc.Func0(d.toggles.Load)},
		{"uptime", rpc.Func0(d.Uptime)},
	}
	for _, item := range bindings {
		if err := svc.Register(item.name, item.b); err != nil {
			return err
		}
	}
	return nil
}

// SetLED switches the LED.
func (d *Device) SetLED(on bool) {
	if d.led.Swap(on) != on {
		d.toggles.Add(1)
		glog.Infof("LED %v", on)
	}
}

// LED gets the LED state.
func (d *Device) LED() bool {
	return d.led.Load()
}

// Uptime is the milliseconds since the device started.
func (d *Device) Uptime() uint32 {
	return uint32(d.now().Sub(d.started).Milliseconds())
}
