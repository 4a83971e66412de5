// Package serial carries bytes between the SCIF and a host-side
// counterpart. The emulation thread sits on one end of each ring and a
// host thread on the other; the rings are single-producer single-consumer
// and lock free.
package serial

import "sync/atomic"

// Ring is a lock-free SPSC byte queue. Exactly one goroutine may call
// Produce and exactly one may call Consume.
type Ring struct {
	buf  []byte
	mask uint64
	head atomic.Uint64 // next slot to consume
	tail atomic.Uint64 // next slot to produce
}

// NewRing creates a ring with the given power-of-two capacity.
func NewRing(capacity int) *Ring {
	if capacity&(capacity-1) != 0 {
		panic("serial: ring capacity must be a power of two")
	}
	return &Ring{buf: make([]byte, capacity), mask: uint64(capacity - 1)}
}

// Produce appends a byte; returns false when the ring is full.
func (r *Ring) Produce(b byte) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint64(len(r.buf)) {
		return false
	}
	r.buf[tail&r.mask] = b
	r.tail.Store(tail + 1)
	return true
}

// Consume removes the oldest byte; ok is false when the ring is empty.
func (r *Ring) Consume() (b byte, ok bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return 0, false
	}
	b = r.buf[head&r.mask]
	r.head.Store(head + 1)
	return b, true
}

// Len reports the number of buffered bytes. Either side may call it; the
// answer is a snapshot.
func (r *Ring) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Conduit is the pair of rings between the SCIF and a host bridge, plus
// the pending flag the emulation thread polls at instruction boundaries.
type Conduit struct {
	// Rx carries host bytes toward the guest; Tx carries guest bytes out.
	Rx *Ring
	Tx *Ring

	pending atomic.Bool
}

func NewConduit() *Conduit {
	return &Conduit{Rx: NewRing(4096), Tx: NewRing(4096)}
}

// Signal marks that the host side produced or consumed something. Safe to
// call from any thread.
func (c *Conduit) Signal() {
	c.pending.Store(true)
}

// TakePending returns and clears the pending flag. Emulation thread only.
func (c *Conduit) TakePending() bool {
	return c.pending.Swap(false)
}
