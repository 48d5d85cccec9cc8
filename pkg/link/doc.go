// Package link runs the RPC endpoint over a transport.Port.
//
// Bytes flow from the Port through a Receiver into a bounded ByteQueue,
// the Feeder is the only consumer of the queue and the only driver of
// the Parser. Complete packets are routed synchronously from the Feeder:
// Request and Stream packets to the Service, Response and Error packets
// to the Client.
package link
