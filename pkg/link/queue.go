package link

import "sync/atomic"

// DefaultByteQueueSize is the capacity of the byte queue.
const DefaultByteQueueSize = 64

// ByteQueue is a bounded single-producer single-consumer queue of bytes.
// Push never blocks, a byte is dropped when the queue is full.
type ByteQueue struct {
	ch      chan byte
	dropped atomic.Uint64
}

// NewByteQueue creates a ByteQueue. size <= 0 selects DefaultByteQueueSize.
func NewByteQueue(size int) *ByteQueue {
	if size <= 0 {
		size = DefaultByteQueueSize
	}
	return &ByteQueue{ch: make(chan byte, size)}
}

// Push enqueues b, it returns false if b is dropped.
func (q *ByteQueue) Push(b byte) bool {
	select {
	case q.ch <- b:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// C exposes the queue to the consumer.
func (q *ByteQueue) C() <-chan byte {
	return q.ch
}

// Len is the number of queued bytes.
func (q *ByteQueue) Len() int {
	return len(q.ch)
}

// Cap is the capacity.
func (q *ByteQueue) Cap() int {
	return cap(q.ch)
}

// Dropped is the number of bytes dropped by Push.
func (q *ByteQueue) Dropped() uint64 {
	return q.dropped.Load()
}
