package transport

import "net"

// NewPipe creates two connected in-memory Ports.
// A write blocks until the peer reads it.
func NewPipe() (Port, Port) {
	a, b := net.Pipe()
	return NewStream(a), NewStream(b)
}
