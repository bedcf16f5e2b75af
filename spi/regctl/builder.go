package regctl

import (
	"github.com/sockitsim/spisim/sim"
)

// Builder builds register front-end components.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	downstream sim.RemotePort
	sinks      []ConfigSink
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

// WithDownstream sets the remote port that issued commands are sent to.
func (b Builder) WithDownstream(remote sim.RemotePort) Builder {
	b.downstream = remote
	return b
}

// WithConfigSink registers one more receiver of configuration writes.
func (b Builder) WithConfigSink(s ConfigSink) Builder {
	b.sinks = append(b.sinks, s)
	return b
}

// Build creates the component.
func (b Builder) Build(name string) *Comp {
	c := new(Comp)
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.downstream = b.downstream
	c.sinks = b.sinks

	c.CmdPort = sim.NewPort(c, 1, 1, name+".CmdPort")
	c.RspPort = sim.NewPort(c, 1, 1, name+".RspPort")
	c.AddPort("Cmd", c.CmdPort)
	c.AddPort("Rsp", c.RspPort)

	c.AddMiddleware(&middleware{Comp: c})

	return c
}
