// Package rpo provides the repackaging-output component. It consumes one
// command-granularity packet at a time and emits the sequence of
// serializer-granularity chunks that serializes it.
package rpo

import (
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi"
)

// Comp splits commands into chunks. It admits a single command in flight: a
// new command is accepted only once the previous command's chunk sequence
// has fully drained.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	UpPort   sim.Port
	DownPort sim.Port

	downstream sim.RemotePort
	dir        spi.ShiftDir
	pack       spi.PackMode
}

// Configure retargets the shift direction and packeting mode. The settings
// are quasi-static: they apply to commands accepted from now on, so callers
// reconfigure only while no command is in flight.
func (c *Comp) Configure(dir spi.ShiftDir, pack spi.PackMode) {
	c.dir = dir
	c.pack = pack
}

// Tick updates the component state.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type middleware struct {
	*Comp

	busy      bool
	cmd       spi.Command
	dataReg   uint32
	remaining int
	first     bool
}

func (m *middleware) Tick() bool {
	madeProgress := false

	madeProgress = m.emitChunk() || madeProgress
	madeProgress = m.acceptCommand() || madeProgress

	return madeProgress
}

func (m *middleware) acceptCommand() bool {
	if m.busy {
		return false
	}

	msg := m.UpPort.PeekIncoming()
	if msg == nil {
		return false
	}

	cmd := msg.(*spi.CommandMsg).Cmd
	cmd.MustBeValid()

	m.busy = true
	m.cmd = cmd
	m.dataReg = cmd.Data
	m.remaining = cmd.Length
	m.first = true

	m.UpPort.RetrieveIncoming()

	return true
}

func (m *middleware) emitChunk() bool {
	if !m.busy || !m.DownPort.CanSend() {
		return false
	}

	n := m.nextChunkBits()
	slice := m.takeSlice(n)

	chunk := spi.Chunk{
		Data:       spi.PackChunk(slice, n, m.cmd.Mode, m.dir),
		Length:     n,
		Mode:       m.cmd.Mode,
		Last:       m.remaining == n,
		New:        m.first,
		Hold:       !m.cmd.Last,
		OutputEn:   m.cmd.OutputEn,
		InputEn:    m.cmd.InputEn,
		ClockEn:    m.cmd.ClockEn,
		SelectMask: m.cmd.SelectMask,
	}
	chunk.MustBeValid()

	msg := spi.ChunkMsgBuilder{}.
		WithSrc(m.DownPort.AsRemote()).
		WithDst(m.downstream).
		WithChunk(chunk).
		Build()

	if err := m.DownPort.Send(msg); err != nil {
		return false
	}

	m.remaining -= n
	m.first = false

	if m.remaining == 0 {
		m.busy = false
	}

	return true
}

// nextChunkBits computes the length of the next chunk: the serializer width
// rounded down to the io-mode radix, capped by the remaining bit count. The
// packeting mode decides whether the undersized remainder goes first or
// last.
func (m *middleware) nextChunkBits() int {
	full := spi.ChunkBits - spi.ChunkBits%m.cmd.Mode.Radix()
	rem := m.remaining % full

	if m.pack == spi.RemainderFirst && m.first && rem != 0 {
		return rem
	}

	if m.remaining < full {
		return m.remaining
	}

	return full
}

// takeSlice shifts the next n bits out of the command data register, from
// the configured end.
func (m *middleware) takeSlice(n int) uint32 {
	if m.dir == spi.LSBFirst {
		slice := m.dataReg & ((1 << n) - 1)
		m.dataReg >>= n

		return slice
	}

	slice := m.dataReg >> (spi.MaxCommandBits - n)
	m.dataReg <<= n

	return slice
}
