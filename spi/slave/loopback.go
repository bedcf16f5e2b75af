// Package slave provides behavioral models of devices attached to the
// physical SPI lines, used by tests and the demo system.
package slave

import (
	"github.com/sockitsim/spisim/spi"
	"github.com/sockitsim/spisim/spi/ser"
)

// Loopback wires every driven output line back to its own input, and MOSI
// back to MISO when MISO is not driven. It satisfies all four IO modes at
// once, so a single instance serves round-trip tests in any mode.
type Loopback struct{}

// NewLoopback creates a loopback device.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Step returns the looped-back line levels.
func (l *Loopback) Step(ls ser.LineState) [spi.NumLines]bool {
	var in [spi.NumLines]bool

	for k := range ls.IO {
		if ls.IO[k].OutEn {
			in[k] = ls.IO[k].Out
		}
	}

	if ls.IO[0].OutEn && !ls.IO[1].OutEn {
		in[1] = ls.IO[0].Out
	}

	return in
}
