// Package directconnection provides a zero-latency connection between ports
// that live in the same clock domain.
package directconnection

import (
	"github.com/sockitsim/spisim/sim"
)

// Comp connects ports without latency. Messages sent in one cycle are
// delivered in the same cycle, after all primary components ticked.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	nextPortID int
	ports      []sim.Port
}

// PlugIn connects a port to this connection.
func (c *Comp) PlugIn(port sim.Port) {
	c.Lock()
	defer c.Unlock()

	c.ports = append(c.ports, port)
	port.SetConnection(c)
}

// NotifyAvailable is called by a port when it can receive again.
func (c *Comp) NotifyAvailable(p sim.Port) {
	for _, port := range c.ports {
		if port == p {
			continue
		}

		port.NotifyAvailable()
	}

	c.TickNow()
}

// NotifySend is called by a port when it has queued an outgoing message.
func (c *Comp) NotifySend() {
	c.TickNow()
}

// Tick forwards queued messages.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type middleware struct {
	*Comp
}

func (m *middleware) Tick() bool {
	madeProgress := false

	// Rotate the starting port so no sender is permanently favored.
	for i := 0; i < len(m.ports); i++ {
		port := m.ports[(i+m.nextPortID)%len(m.ports)]
		madeProgress = m.forwardMany(port) || madeProgress
	}

	m.nextPortID = (m.nextPortID + 1) % len(m.ports)

	return madeProgress
}

func (m *middleware) forwardMany(port sim.Port) bool {
	madeProgress := false

	for {
		head := port.PeekOutgoing()
		if head == nil {
			break
		}

		dst := m.findDst(head.Meta().Dst)
		if err := dst.Deliver(head); err != nil {
			break
		}

		port.RetrieveOutgoing()
		madeProgress = true
	}

	return madeProgress
}

func (m *middleware) findDst(name sim.RemotePort) sim.Port {
	for _, port := range m.ports {
		if port.AsRemote() == name {
			return port
		}
	}

	panic("dst " + string(name) + " is not connected")
}
