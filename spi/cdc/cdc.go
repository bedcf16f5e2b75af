// Package cdc provides the clock-domain-crossing queue channel. One Comp
// carries messages in one direction: its upstream port is stepped by the
// write-side clock domain and its downstream port by the read-side domain,
// with a Gray-pointer fifo in between.
package cdc

import (
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi/gray"
)

// Comp is a unidirectional clock-domain-crossing channel. Messages enter
// through UpPort in the write domain and leave through DownPort in the read
// domain, no earlier than one synchronization step after they were pushed.
type Comp struct {
	*sim.ComponentBase

	UpPort   sim.Port
	DownPort sim.Port

	fifo *gray.Fifo

	writeSide *tickSide
	readSide  *tickSide

	downstream sim.RemotePort

	abortPending bool
}

// tickSide is one clock-domain side of the channel. Each side has its own
// tick scheduler, so the two sides advance on independent time grids.
type tickSide struct {
	*sim.TickScheduler

	tick func() bool
}

func (s *tickSide) Handle(_ sim.Event) error {
	if s.tick() {
		s.TickLater()
	}

	return nil
}

// NotifyRecv wakes the write side when a message arrives at UpPort.
func (c *Comp) NotifyRecv(port sim.Port) {
	if port == c.UpPort {
		c.writeSide.TickLater()
	}
}

// NotifyPortFree wakes the read side when DownPort can send again.
func (c *Comp) NotifyPortFree(port sim.Port) {
	if port == c.DownPort {
		c.readSide.TickLater()
	}
}

// Handle is unused; each side handles its own tick events.
func (c *Comp) Handle(_ sim.Event) error {
	return nil
}

// Abort requests a synchronous clear of the read side on its next tick,
// discarding buffered-but-unconsumed entries. Used to drop in-flight reload
// data when a higher-level abort occurs.
func (c *Comp) Abort() {
	c.abortPending = true
	c.readSide.TickLater()
}

// tickWrite advances the write-domain side by one cycle.
func (c *Comp) tickWrite() bool {
	c.fifo.StepWrite()

	madeProgress := false

	for !c.fifo.Full() {
		msg := c.UpPort.PeekIncoming()
		if msg == nil {
			break
		}

		c.fifo.Push(msg)
		c.UpPort.RetrieveIncoming()

		// Models the free-running read clock noticing the new entry.
		c.readSide.TickLater()

		madeProgress = true
	}

	// The write clock keeps running while the synchronized read pointer
	// is catching up, or Full would stay stale forever.
	return madeProgress || c.fifo.WriteSyncPending()
}

// tickRead advances the read-domain side by one cycle.
func (c *Comp) tickRead() bool {
	c.fifo.StepRead()

	if c.abortPending {
		c.fifo.ClearRead()
		c.abortPending = false
	}

	madeProgress := false

	for !c.fifo.Empty() {
		msg := c.fifo.Peek().(sim.Msg)

		msg.Meta().Src = c.DownPort.AsRemote()
		msg.Meta().Dst = c.downstream

		if err := c.DownPort.Send(msg); err != nil {
			break
		}

		c.fifo.Pop()
		c.writeSide.TickLater()

		madeProgress = true
	}

	// Keep stepping while a pushed entry is still crossing the
	// synchronizer, so it gets noticed once the chain settles.
	return madeProgress || c.fifo.ReadSyncPending()
}
