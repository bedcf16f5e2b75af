package gray

import (
	"fmt"
	"math/bits"
)

// A Fifo is an asynchronous fifo with Gray-coded read and write pointers.
// The write side lives in one clock domain and the read side in another;
// each side sees the other's pointer only through a two-register
// synchronizer chain, stepped by StepWrite and StepRead respectively.
//
// The pointers carry one bit more than the depth requires (2^W >= depth+1),
// so that a full fifo and an empty fifo are distinguishable at equal
// modulo-depth index.
//
// Overflow and underflow are caller contract violations and panic: the
// handshake channels upstream must apply back-pressure before them.
type Fifo struct {
	name  string
	depth int
	ptrW  uint

	mem []any

	wr Counter
	rd Counter

	rdAtWr SyncChain // read pointer as seen by the write domain
	wrAtRd SyncChain // write pointer as seen by the read domain
}

// NewFifo creates a fifo with the given power-of-two depth.
func NewFifo(name string, depth int) *Fifo {
	if depth < 2 || bits.OnesCount(uint(depth)) != 1 {
		panic(fmt.Sprintf("fifo depth %d is not a power of two", depth))
	}

	w := uint(bits.TrailingZeros(uint(depth))) + 1

	return &Fifo{
		name:  name,
		depth: depth,
		ptrW:  w,
		mem:   make([]any, depth),
		wr:    NewCounter(w),
		rd:    NewCounter(w),
	}
}

// Name returns the name of the fifo.
func (f *Fifo) Name() string {
	return f.name
}

// Depth returns the capacity of the fifo.
func (f *Fifo) Depth() int {
	return f.depth
}

// StepWrite advances the write-domain synchronizer by one tick. Call it
// once per write-domain tick, before Full or Push.
func (f *Fifo) StepWrite() {
	f.rdAtWr.Step(f.rd.Gray())
}

// StepRead advances the read-domain synchronizer by one tick. Call it once
// per read-domain tick, before Empty or Pop.
func (f *Fifo) StepRead() {
	f.wrAtRd.Step(f.wr.Gray())
}

// Full reports, in the write domain, whether the fifo can take no more
// entries. It compares the write codeword against the synchronized read
// codeword with the two wrap bits inverted: equal means the pointers are a
// full lap apart.
func (f *Fifo) Full() bool {
	return f.wr.Gray() == f.invertWrapBits(f.rdAtWr.Out())
}

// Push appends an entry in the write domain.
func (f *Fifo) Push(e any) {
	if f.Full() {
		panic("fifo overflow on " + f.name)
	}

	f.mem[f.wr.Bin()&uint32(f.depth-1)] = e
	f.wr.Inc()
}

// Empty reports, in the read domain, whether no entry is observable yet.
func (f *Fifo) Empty() bool {
	return f.rd.Gray() == f.wrAtRd.Out()
}

// Peek returns the oldest observable entry without removing it.
func (f *Fifo) Peek() any {
	if f.Empty() {
		return nil
	}

	return f.mem[f.rd.Bin()&uint32(f.depth-1)]
}

// Pop removes and returns the oldest observable entry in the read domain.
func (f *Fifo) Pop() any {
	if f.Empty() {
		panic("fifo underflow on " + f.name)
	}

	e := f.mem[f.rd.Bin()&uint32(f.depth-1)]
	f.rd.Inc()

	return e
}

// WriteSyncPending reports, in the write domain, whether the synchronized
// read pointer still lags the actual read pointer. A stopped write clock
// must keep stepping while this holds or Full would stay stale.
func (f *Fifo) WriteSyncPending() bool {
	return f.rdAtWr.Out() != f.rd.Gray()
}

// ReadSyncPending reports, in the read domain, whether the synchronized
// write pointer still lags the actual write pointer.
func (f *Fifo) ReadSyncPending() bool {
	return f.wrAtRd.Out() != f.wr.Gray()
}

// ClearWrite synchronously forces the write pointer onto the last
// synchronized read pointer, un-publishing entries the reader has not
// consumed yet.
func (f *Fifo) ClearWrite() {
	f.wr.SetBin(Decode(f.rdAtWr.Out()))
}

// ClearRead synchronously forces the read pointer onto the last
// synchronized write pointer, discarding buffered-but-unconsumed entries.
// This is the abort path for in-flight reload data.
func (f *Fifo) ClearRead() {
	f.rd.SetBin(Decode(f.wrAtRd.Out()))
}

// invertWrapBits flips the top two bits of a W-bit Gray codeword, which maps
// a Gray pointer onto the codeword one full lap away.
func (f *Fifo) invertWrapBits(g uint32) uint32 {
	return g ^ (0x3 << (f.ptrW - 2))
}
