// Package rpi provides the repackaging-input component. It consumes a
// sequence of serializer-granularity chunks and reassembles them into one
// command-granularity packet, released exactly when the last chunk arrives.
package rpi

import (
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi"
)

// Comp reassembles chunk sequences into commands.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	DownPort sim.Port
	UpPort   sim.Port

	upstream sim.RemotePort
	dir      spi.ShiftDir
}

// SetUpstream sets the remote port reassembled commands are sent to. The
// system builder wires it after all components exist, since the upstream
// front-end is built after the datapath.
func (c *Comp) SetUpstream(r sim.RemotePort) {
	c.upstream = r
}

// Configure retargets the shift direction. Quasi-static: callers reconfigure
// only between transfers, with the accumulator empty.
func (c *Comp) Configure(dir spi.ShiftDir) {
	c.dir = dir
}

// Tick updates the component state.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type middleware struct {
	*Comp

	acc     uint32
	accBits int

	pending *spi.CommandMsg
}

func (m *middleware) Tick() bool {
	madeProgress := false

	madeProgress = m.sendReassembled() || madeProgress
	madeProgress = m.acceptChunk() || madeProgress

	return madeProgress
}

func (m *middleware) acceptChunk() bool {
	// A released command that has not left yet blocks further intake;
	// the accumulator may only hold one sequence at a time.
	if m.pending != nil {
		return false
	}

	msg := m.DownPort.PeekIncoming()
	if msg == nil {
		return false
	}

	chunk := msg.(*spi.ChunkMsg).Chunk

	// The new flag re-derives framing from the companion output stream:
	// whatever was accumulated before belongs to an abandoned sequence.
	if chunk.New {
		m.acc = 0
		m.accBits = 0
	}

	m.accumulate(chunk)

	if chunk.Last {
		m.release(chunk)
	}

	m.DownPort.RetrieveIncoming()

	return true
}

func (m *middleware) accumulate(chunk spi.Chunk) {
	// A zero-length last chunk commits the accumulator unmodified.
	if chunk.Length == 0 {
		return
	}

	chunk.MustBeValid()

	slice := spi.UnpackChunk(chunk.Data, chunk.Length, chunk.Mode, m.dir)

	if m.dir == spi.LSBFirst {
		m.acc |= slice << m.accBits
	} else {
		m.acc = m.acc<<chunk.Length | slice
	}

	m.accBits += chunk.Length
}

func (m *middleware) release(chunk spi.Chunk) {
	cmd := spi.Command{
		Data:    m.alignedData(),
		Length:  m.accBits,
		Mode:    chunk.Mode,
		InputEn: chunk.InputEn,
		Last:    !chunk.Hold,
	}

	m.pending = spi.CommandMsgBuilder{}.
		WithSrc(m.UpPort.AsRemote()).
		WithDst(m.upstream).
		WithCmd(cmd).
		Build()

	m.acc = 0
	m.accBits = 0
}

// alignedData places the reassembled bits where the command data model
// expects them: the top bits for MSB-first, the bottom bits for LSB-first.
func (m *middleware) alignedData() uint32 {
	if m.dir == spi.LSBFirst || m.accBits == 0 {
		return m.acc
	}

	return m.acc << (spi.MaxCommandBits - m.accBits)
}

func (m *middleware) sendReassembled() bool {
	if m.pending == nil {
		return false
	}

	if err := m.UpPort.Send(m.pending); err != nil {
		return false
	}

	m.pending = nil

	return true
}
