package rpi

import (
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi"
)

// Builder builds repackaging-input components.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	dir      spi.ShiftDir
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

// WithFreq sets the control-domain frequency.
func (b Builder) WithFreq(f sim.Freq) Builder {
	b.freq = f
	return b
}

// WithShiftDir sets the bit order. It must match RPO and SER.
func (b Builder) WithShiftDir(d spi.ShiftDir) Builder {
	b.dir = d
	return b
}

// WithUpstream sets the remote port that reassembled commands are sent to.
func (b Builder) WithUpstream(remote sim.RemotePort) Builder {
	b.upstream = remote
	return b
}

// Build creates the component.
func (b Builder) Build(name string) *Comp {
	c := new(Comp)
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.upstream = b.upstream
	c.dir = b.dir

	c.DownPort = sim.NewPort(c, 1, 1, name+".DownPort")
	c.UpPort = sim.NewPort(c, 1, 1, name+".UpPort")
	c.AddPort("Down", c.DownPort)
	c.AddPort("Up", c.UpPort)

	c.AddMiddleware(&middleware{Comp: c})

	return c
}
