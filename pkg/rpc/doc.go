// Package rpc provides a request/response RPC layer over protocol frames.
//
// Payload layout inside a frame:
//
//	kind | seq | function name, NUL terminated | arguments or result
//
// Arguments and results are fixed-width little-endian primitives packed
// back-to-back without padding, described by a Schema.
package rpc
