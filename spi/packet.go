package spi

import "fmt"

// ChunkBits is the serializer width: the maximum number of payload bits a
// single chunk carries, regardless of IO mode.
const ChunkBits = 8

// NumLines is the number of physical IO data lines.
const NumLines = 4

// NumSelects is the number of chip-select lines.
const NumSelects = 8

// MaxCommandBits is the maximum payload length of one command.
const MaxCommandBits = 32

// A Command is the full-length unit of SPI work requested by a front-end.
type Command struct {
	// Data holds up to 32 payload bits. For MSB-first transfers the
	// payload occupies the most significant Length bits; for LSB-first
	// the least significant.
	Data   uint32
	Length int
	Mode   IOMode

	OutputEn bool
	InputEn  bool
	ClockEn  bool

	// SelectMask selects which chip-select lines assert for this command.
	SelectMask uint8

	// Last releases the chip selects once the command completes. A
	// front-end chains commands within one select assertion by clearing
	// it on all but the final command.
	Last bool
}

// MustBeValid panics if the command violates the data-model contract.
func (c Command) MustBeValid() {
	if c.Length < 1 || c.Length > MaxCommandBits {
		panic(fmt.Sprintf("command length %d out of range 1..%d",
			c.Length, MaxCommandBits))
	}

	if c.Length%c.Mode.Radix() != 0 {
		panic(fmt.Sprintf(
			"command length %d is not a multiple of the %s radix %d",
			c.Length, c.Mode, c.Mode.Radix()))
	}
}

// A Chunk is one serializer-width slice of a command, as shifted onto or
// captured from the physical lines.
type Chunk struct {
	// Data is the packed per-line payload: one byte-wide lane per
	// physical IO line, filled by PackChunk.
	Data   uint32
	Length int
	Mode   IOMode

	// Last marks the final chunk of a command; it releases the RPI
	// accumulator. New marks the first chunk, letting the input side
	// derive framing from the output stream when it has no start signal
	// of its own.
	Last bool
	New  bool

	// Hold keeps the chip selects asserted after a Last chunk, so that a
	// chained follow-on command continues under the same select
	// assertion.
	Hold bool

	// Line control, copied from the owning command.
	OutputEn   bool
	InputEn    bool
	ClockEn    bool
	SelectMask uint8
}

// Cycles returns the number of serial clock cycles the chunk occupies.
func (c Chunk) Cycles() int {
	r := c.Mode.Radix()
	return (c.Length + r - 1) / r
}

// MustBeValid panics if the chunk violates the chunk-radix invariant.
func (c Chunk) MustBeValid() {
	if c.Length < 1 || c.Length > ChunkBits {
		panic(fmt.Sprintf("chunk length %d out of range 1..%d",
			c.Length, ChunkBits))
	}

	if c.Length%c.Mode.Radix() != 0 {
		panic(fmt.Sprintf(
			"chunk length %d is not a multiple of the %s radix %d",
			c.Length, c.Mode, c.Mode.Radix()))
	}
}
