// Package protocol provides the framing layer of the serial RPC link.
package protocol

// A frame carries one RPC payload over an asynchronous byte stream
// (typically a UART) and is self-synchronizing: any corruption is detected
// by literal markers and two CRC-8 checksums, the frame is dropped, and the
// parser resumes hunting for the next sync byte.
//
//	0xFA | len_lo | len_hi | header_crc | 0xFB | payload[len] | data_crc | 0xFE
//
// header_crc = CRC8(0xFA, len_lo, len_hi), data_crc = CRC8(payload).
// The first two payload bytes identify the message kind and sequence.
//
// Producer: Sender (any task)
// Consumer: Parser (single feeder task)
