// Package ringbuf provides the fixed-capacity byte ring that bridges the
// receive interrupt and the shell worker. One producer (the RX interrupt
// path) advances the write index; one consumer (the worker) advances the
// read index. Indices are monotonic, so wr-rd is an exact count and a full
// buffer is distinguishable from an empty one.
//
// When a push exceeds the free space the producer advances the read index
// by the shortfall before writing: the oldest unread bytes are overwritten
// rather than the new data rejected. This trades data loss for bounded,
// allocation-free execution on the interrupt path. Read-index updates use
// compare-and-swap on both sides because the overwrite path makes the
// producer a second writer of that index.
package ringbuf

import (
	"sync/atomic"

	"cmdshell-go/errcode"
	"cmdshell-go/x/mathx"
)

type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)
}

// New returns a ring of the given capacity. Capacity must be a power of
// two >= 2.
func New(size int) (*Ring, error) {
	if size < 2 || !mathx.IsPow2(size) {
		return nil, errcode.InvalidArgs
	}
	return &Ring{
		buf:  make([]byte, size),
		mask: uint32(size - 1),
	}, nil
}

// Cap returns the total capacity in bytes.
func (r *Ring) Cap() int { return len(r.buf) }

// Used returns the number of unread bytes.
func (r *Ring) Used() int {
	return int(r.wr.Load() - r.rd.Load())
}

// Free returns the remaining space in bytes.
func (r *Ring) Free() int { return len(r.buf) - r.Used() }

// IsEmpty reports whether there is nothing to pop.
func (r *Ring) IsEmpty() bool { return r.Used() == 0 }

// Push copies p into the ring, overwriting the oldest unread bytes if p
// does not fit. It returns the number of previously unread bytes that were
// discarded. Producer side only.
func (r *Ring) Push(p []byte) (dropped int) {
	n := len(p)
	if n == 0 {
		return 0
	}
	size := uint32(len(r.buf))
	if n > int(size) {
		// Only the newest capacity bytes can survive.
		dropped += n - int(size)
		p = p[n-int(size):]
		n = int(size)
	}

	wr := r.wr.Load()
	// Claim space, evicting the oldest bytes if the consumer has not kept up.
	for {
		rd := r.rd.Load()
		free := int(size - (wr - rd))
		if free >= n {
			break
		}
		adv := uint32(n - free)
		if r.rd.CompareAndSwap(rd, rd+adv) {
			dropped += int(adv)
			break
		}
		// Consumer moved rd under us; recompute.
	}

	idx := wr & r.mask
	first := int(size - idx)
	if first > n {
		first = n
	}
	copy(r.buf[idx:idx+uint32(first)], p[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], p[first:n])
	}
	r.wr.Store(wr + uint32(n)) // publish
	return dropped
}

// Pop copies up to len(dst) bytes out of the ring in FIFO order and
// returns how many were produced. Consumer side only.
func (r *Ring) Pop(dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	size := uint32(len(r.buf))
	for {
		rd := r.rd.Load()
		wr := r.wr.Load() // acquire
		avail := int(wr - rd)
		if avail <= 0 {
			return 0
		}
		n := avail
		if len(dst) < n {
			n = len(dst)
		}

		idx := rd & r.mask
		first := int(size - idx)
		if first > n {
			first = n
		}
		copy(dst[:first], r.buf[idx:idx+uint32(first)])
		if second := n - first; second > 0 {
			copy(dst[first:n], r.buf[:second])
		}
		if r.rd.CompareAndSwap(rd, rd+uint32(n)) {
			return n
		}
		// The producer evicted bytes we were reading; retry with fresh
		// indices so the caller never sees torn data.
	}
}

// Reset discards all unread bytes. Safe only while the producer is quiet
// (the port holds reception disarmed during open/close).
func (r *Ring) Reset() {
	r.rd.Store(r.wr.Load())
}
