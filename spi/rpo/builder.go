package rpo

import (
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi"
)

// Builder builds repackaging-output components.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	dir        spi.ShiftDir
	pack       spi.PackMode
	downstream sim.RemotePort
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

// WithShiftDir sets the bit order. It must match RPI and SER.
func (b Builder) WithShiftDir(d spi.ShiftDir) Builder {
	b.dir = d
	return b
}

// WithPackMode sets the placement of the undersized remainder chunk.
func (b Builder) WithPackMode(p spi.PackMode) Builder {
	b.pack = p
	return b
}

// WithDownstream sets the remote port that chunks are sent to.
func (b Builder) WithDownstream(remote sim.RemotePort) Builder {
	b.downstream = remote
	return b
}

// Build creates the component.
func (b Builder) Build(name string) *Comp {
	c := new(Comp)
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.downstream = b.downstream
	c.dir = b.dir
	c.pack = b.pack

	c.UpPort = sim.NewPort(c, 1, 1, name+".UpPort")
	c.DownPort = sim.NewPort(c, 1, 1, name+".DownPort")
	c.AddPort("Up", c.UpPort)
	c.AddPort("Down", c.DownPort)

	c.AddMiddleware(&middleware{Comp: c})

	return c
}
