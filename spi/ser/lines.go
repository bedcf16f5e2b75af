package ser

import "github.com/sockitsim/spisim/spi"

// A Line is the logical output state of one bidirectional pad: the driven
// level and whether the pad drives at all.
type Line struct {
	Out   bool
	OutEn bool
}

// LineState is the sampled logical state of the physical SPI lines at a
// clock edge. Electrical behavior (drive strength, rise time) is out of
// scope; only levels and output enables are modeled.
type LineState struct {
	// SCK is the serial clock level. SCKEn is cleared while the clock
	// output is not driven at all.
	SCK   bool
	SCKEn bool

	// IO are the four data lines. Narrower modes leave the unused lines
	// undriven.
	IO [spi.NumLines]Line

	// CS is the asserted chip-select mask; bit i set means select line i
	// is active.
	CS uint8
}

// A Bus is the behavioral model of whatever is attached to the physical
// lines. Step is invoked at every half clock step while a transfer is in
// progress, and once more when the selects change, with the line state just
// after the change. It returns the levels the attached device drives onto
// the four IO lines.
type Bus interface {
	Step(ls LineState) [spi.NumLines]bool
}
