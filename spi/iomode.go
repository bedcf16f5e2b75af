// Package spi defines the data model of the SPI master datapath: commands,
// serializer-width chunks, IO modes, and the wire-level register layout.
package spi

import "fmt"

// IOMode is the wire discipline of a transfer.
type IOMode uint8

// The four supported wire disciplines.
const (
	// ThreeWire uses a single bidirectional data line. Direction is gated
	// by the command's output enable.
	ThreeWire IOMode = iota

	// Single is standard SPI with distinct MOSI and MISO lines.
	Single

	// Dual transfers two bits per serial clock on lines IO0-IO1.
	Dual

	// Quad transfers four bits per serial clock on lines IO0-IO3.
	Quad
)

// Radix returns the number of bits transferred per serial clock. This table
// is the single source of truth; RPO, RPI and SER all consult it, so the
// three can never disagree on bit distribution.
func (m IOMode) Radix() int {
	switch m {
	case ThreeWire, Single:
		return 1
	case Dual:
		return 2
	case Quad:
		return 4
	default:
		panic(fmt.Sprintf("invalid io mode %d", m))
	}
}

func (m IOMode) String() string {
	switch m {
	case ThreeWire:
		return "3-wire"
	case Single:
		return "spi"
	case Dual:
		return "dual"
	case Quad:
		return "quad"
	default:
		return fmt.Sprintf("IOMode(%d)", m)
	}
}

// ShiftDir selects the bit order of serialization.
type ShiftDir uint8

// Shift directions. RPO, RPI and SER must be configured with the same
// direction or the pipeline silently reverses bit order.
const (
	MSBFirst ShiftDir = iota
	LSBFirst
)

func (d ShiftDir) String() string {
	if d == LSBFirst {
		return "lsb-first"
	}

	return "msb-first"
}

// ClockMode is one of the four standard SPI clock modes (CPOL x CPHA).
type ClockMode uint8

// The four standard SPI clock modes.
const (
	Mode0 ClockMode = iota // CPOL=0 CPHA=0
	Mode1                  // CPOL=0 CPHA=1
	Mode2                  // CPOL=1 CPHA=0
	Mode3                  // CPOL=1 CPHA=1
)

// Pol returns the clock polarity: the idle level of the serial clock.
func (c ClockMode) Pol() bool {
	return c >= Mode2
}

// Pha returns the clock phase. With Pha false, output is set up before the
// leading edge and input is sampled on it; with Pha true the roles shift by
// one half clock.
func (c ClockMode) Pha() bool {
	return c == Mode1 || c == Mode3
}

func (c ClockMode) String() string {
	return fmt.Sprintf("mode%d", int(c))
}

// PackMode controls where RPO places the undersized remainder chunk of a
// command whose length is not a multiple of the serializer width.
type PackMode uint8

// Packeting modes.
const (
	RemainderLast PackMode = iota
	RemainderFirst
)

func (p PackMode) String() string {
	if p == RemainderFirst {
		return "remainder-first"
	}

	return "remainder-last"
}
