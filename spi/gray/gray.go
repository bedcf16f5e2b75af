// Package gray provides the Gray-code primitives used to cross between the
// control-side and serial-side clock domains: encode/decode, counters,
// two-register synchronizer chains, a pulse synchronizer, and an
// asynchronous fifo with Gray-coded pointers.
//
// In hardware these primitives exist to avoid multi-bit metastability. The
// software model keeps only the algorithmic contract: a value written in one
// domain becomes visible in the other no earlier than one synchronization
// step later, and a synchronized pointer sample is always a valid codeword,
// either the current or the previous value of the source counter.
package gray

// Encode converts a binary value to its Gray codeword.
func Encode(b uint32) uint32 {
	return b ^ (b >> 1)
}

// Decode converts a Gray codeword back to binary.
func Decode(g uint32) uint32 {
	b := g
	for shift := 1; shift < 32; shift <<= 1 {
		b ^= b >> shift
	}

	return b
}

// A Counter is a width-limited counter whose Gray image changes in exactly
// one bit per increment.
type Counter struct {
	width uint
	bin   uint32
}

// NewCounter creates a counter of the given bit width.
func NewCounter(width uint) Counter {
	if width == 0 || width > 32 {
		panic("counter width out of range")
	}

	return Counter{width: width}
}

// Inc advances the counter by one, wrapping at 2^width.
func (c *Counter) Inc() {
	c.bin = (c.bin + 1) & c.mask()
}

// Bin returns the binary value of the counter.
func (c Counter) Bin() uint32 {
	return c.bin
}

// Gray returns the Gray codeword of the counter.
func (c Counter) Gray() uint32 {
	return Encode(c.bin)
}

// SetBin forces the counter to a binary value. Used by the synchronous
// clear path of the fifo.
func (c *Counter) SetBin(b uint32) {
	c.bin = b & c.mask()
}

func (c Counter) mask() uint32 {
	if c.width >= 32 {
		return ^uint32(0)
	}

	return (1 << c.width) - 1
}
