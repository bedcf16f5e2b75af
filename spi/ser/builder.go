package ser

import (
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi"
)

// Builder builds serializer components.
type Builder struct {
	engine   sim.Engine
	sclkFreq sim.Freq
	clock    spi.ClockMode
	dir      spi.ShiftDir
	bus      Bus
	upstream sim.RemotePort
}

// MakeBuilder creates a default builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithEngine sets the engine driving the component.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithSCLKFreq sets the serial clock frequency. The component itself ticks
// at twice this frequency, one tick per half clock.
func (b Builder) WithSCLKFreq(f sim.Freq) Builder {
	b.sclkFreq = f
	return b
}

// WithClockMode sets the SPI clock mode (polarity and phase).
func (b Builder) WithClockMode(c spi.ClockMode) Builder {
	b.clock = c
	return b
}

// WithShiftDir sets the bit order. It must match RPO and RPI.
func (b Builder) WithShiftDir(d spi.ShiftDir) Builder {
	b.dir = d
	return b
}

// WithBus attaches the behavioral model of the devices on the lines.
func (b Builder) WithBus(bus Bus) Builder {
	b.bus = bus
	return b
}

// WithUpstream sets the remote port that captured input chunks are sent to.
func (b Builder) WithUpstream(remote sim.RemotePort) Builder {
	b.upstream = remote
	return b
}

// Build creates the component.
func (b Builder) Build(name string) *Comp {
	c := new(Comp)
	c.TickingComponent = sim.NewTickingComponent(
		name, b.engine, b.sclkFreq*2, c)

	c.upstream = b.upstream
	c.clock = b.clock
	c.dir = b.dir
	c.bus = b.bus

	c.TxPort = sim.NewPort(c, 1, 1, name+".TxPort")
	c.RxPort = sim.NewPort(c, 1, 1, name+".RxPort")
	c.AddPort("Tx", c.TxPort)
	c.AddPort("Rx", c.RxPort)

	mw := &middleware{Comp: c}
	mw.lines.SCK = b.clock.Pol()
	c.AddMiddleware(mw)

	return c
}
