package cdc

import (
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi/gray"
)

// Builder builds clock-domain-crossing channels.
type Builder struct {
	engine     sim.Engine
	writeFreq  sim.Freq
	readFreq   sim.Freq
	depth      int
	downstream sim.RemotePort
}

// MakeBuilder creates a builder with a default fifo depth of 4.
func MakeBuilder() Builder {
	return Builder{depth: 4}
}

// WithEngine sets the engine driving both sides.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithWriteFreq sets the frequency of the write-side clock domain.
func (b Builder) WithWriteFreq(f sim.Freq) Builder {
	b.writeFreq = f
	return b
}

// WithReadFreq sets the frequency of the read-side clock domain.
func (b Builder) WithReadFreq(f sim.Freq) Builder {
	b.readFreq = f
	return b
}

// WithDepth sets the fifo depth, which must be a power of two.
func (b Builder) WithDepth(d int) Builder {
	b.depth = d
	return b
}

// WithDownstream sets the remote port that drained messages are forwarded
// to.
func (b Builder) WithDownstream(remote sim.RemotePort) Builder {
	b.downstream = remote
	return b
}

// Build creates the channel.
func (b Builder) Build(name string) *Comp {
	c := new(Comp)
	c.ComponentBase = sim.NewComponentBase(name)

	c.fifo = gray.NewFifo(name+".Fifo", b.depth)
	c.downstream = b.downstream

	c.UpPort = sim.NewPort(c, 1, 1, name+".UpPort")
	c.DownPort = sim.NewPort(c, 1, 1, name+".DownPort")
	c.AddPort("Up", c.UpPort)
	c.AddPort("Down", c.DownPort)

	c.writeSide = &tickSide{tick: c.tickWrite}
	c.writeSide.TickScheduler = sim.NewTickScheduler(
		c.writeSide, b.engine, b.writeFreq)

	c.readSide = &tickSide{tick: c.tickRead}
	c.readSide.TickScheduler = sim.NewTickScheduler(
		c.readSide, b.engine, b.readFreq)

	return c
}
