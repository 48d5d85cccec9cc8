// Package transport provides the byte links carrying frames between
// a host and a device.
//
// A Port is opened from a link URL, the scheme selects the transport:
//
//	serial:///dev/ttyUSB0?baud=115200
//	tcp://localhost:7000            (role=device listens for the host)
//	ws://localhost:8080/link        (package transport/websocket)
//	mqtt://broker:1883/prefix/?device=ID&role=host
//	                                (package transport/mqtt)
package transport
