// Package ser provides the serializer/deserializer: the bit-level engine
// that turns serializer-width chunks into serial-line transitions and
// captures inbound bits back into chunks.
//
// The component ticks at twice the serial clock frequency; every tick is
// one half clock. The first half step of a cycle carries the leading clock
// edge, the second the trailing edge. Which edge drives output and which
// samples input follows the configured clock mode: with phase 0 the output
// is set up before the leading edge and input is sampled on it, with phase
// 1 both move one half clock later, implemented as a direct and a
// phase-delayed output register selected by the phase bit.
package ser

import (
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi"
)

type serState int

const (
	// stateIdle: no select asserted, clock held at idle polarity.
	stateIdle serState = iota

	// stateActive: selects asserted, bits shifting.
	stateActive

	// stateDrain: the current chunk finished but the transfer is not
	// over; selects stay asserted while the next chunk is awaited.
	stateDrain
)

// Comp drives the physical lines. Chunks to serialize arrive at TxPort;
// captured input chunks leave through RxPort.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	TxPort sim.Port
	RxPort sim.Port

	upstream sim.RemotePort
	clock    spi.ClockMode
	dir      spi.ShiftDir
	bus      Bus
}

// Lines returns the current logical state of the physical lines.
func (c *Comp) Lines() LineState {
	return c.Middlewares()[0].(*middleware).lines
}

// Configure retargets the clock mode and shift direction. The settings are
// quasi-static: callers reconfigure only while the serializer is idle, and
// the clock line moves to the new idle polarity immediately.
func (c *Comp) Configure(clock spi.ClockMode, dir spi.ShiftDir) {
	c.clock = clock
	c.dir = dir

	m := c.Middlewares()[0].(*middleware)
	if m.state == stateIdle {
		m.lines.SCK = clock.Pol()
		m.bus.Step(m.lines)
	}
}

// Tick updates the component state by one half clock.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type middleware struct {
	*Comp

	state serState
	lines LineState

	chunk   spi.Chunk
	slice   uint32 // direct output shift register
	shadow  uint32 // phase-delayed copy, lags by one half clock
	capture uint32
	steps   int
	step    int
	half    int

	pending *spi.ChunkMsg
}

func (m *middleware) Tick() bool {
	madeProgress := false

	madeProgress = m.sendCaptured() || madeProgress

	switch m.state {
	case stateIdle:
		madeProgress = m.tryStart() || madeProgress
	case stateActive:
		madeProgress = m.shiftHalf() || madeProgress
	case stateDrain:
		madeProgress = m.tryReload() || madeProgress
	}

	return madeProgress
}

// tryStart accepts a chunk while idle. Accepting asserts the selects and,
// for phase 0, sets up the first output group, all before the first clock
// edge.
func (m *middleware) tryStart() bool {
	if !m.acceptChunk() {
		return false
	}

	m.applySelects()
	m.setupOutput()
	m.bus.Step(m.lines)

	m.state = stateActive

	return true
}

// tryReload accepts the follow-on chunk of a multi-chunk transfer. The
// selects never drop in between.
func (m *middleware) tryReload() bool {
	if !m.acceptChunk() {
		return false
	}

	m.applySelects()
	m.setupOutput()

	m.state = stateActive

	return true
}

// acceptChunk latches the next queued chunk, if any. A pending unsent
// capture blocks intake so that input chunks are never reordered.
func (m *middleware) acceptChunk() bool {
	if m.pending != nil {
		return false
	}

	msg := m.TxPort.PeekIncoming()
	if msg == nil {
		return false
	}

	chunk := msg.(*spi.ChunkMsg).Chunk
	chunk.MustBeValid()

	m.chunk = chunk
	m.slice = spi.UnpackChunk(chunk.Data, chunk.Length, chunk.Mode, m.dir)
	m.shadow = 0
	m.capture = 0
	m.steps = chunk.Cycles()
	m.step = 0
	m.half = 0

	m.TxPort.RetrieveIncoming()

	return true
}

// shiftHalf advances the transfer by one half clock. A chunk, once begun,
// always completes its programmed bit count; there is no mid-chunk abort.
func (m *middleware) shiftHalf() bool {
	if m.half == 0 {
		m.leadingEdge()
		m.half = 1

		return true
	}

	m.trailingEdge()
	m.half = 0
	m.step++

	if m.step == m.steps {
		m.finishChunk()
	}

	return true
}

func (m *middleware) leadingEdge() {
	if m.chunk.ClockEn {
		m.lines.SCK = !m.clock.Pol()
	}

	// Phase 1 drives on the leading edge, from the delayed register.
	if m.clock.Pha() {
		m.shadow = m.slice
		m.driveGroup(m.step)
	}

	in := m.bus.Step(m.lines)

	if !m.clock.Pha() {
		m.sampleGroup(m.step, in)
	}
}

func (m *middleware) trailingEdge() {
	if m.chunk.ClockEn {
		m.lines.SCK = m.clock.Pol()
	}

	// Phase 0 sets up the next group on the trailing edge, ready before
	// the next leading edge.
	if !m.clock.Pha() && m.step+1 < m.steps {
		m.driveGroup(m.step + 1)
	}

	in := m.bus.Step(m.lines)

	if m.clock.Pha() {
		m.sampleGroup(m.step, in)
	}
}

// outReg selects the output register by the configured phase: the direct
// register for phase 0, the half-clock-delayed shadow for phase 1.
func (m *middleware) outReg() uint32 {
	if m.clock.Pha() {
		return m.shadow
	}

	return m.slice
}

// driveGroup puts the bits of one shift step onto the data lines.
func (m *middleware) driveGroup(step int) {
	r := m.chunk.Mode.Radix()
	group := spi.Group(m.outReg(), m.chunk.Length, step, m.chunk.Mode, m.dir)

	for line := 0; line < spi.NumLines; line++ {
		if line < r {
			m.lines.IO[line].Out = group>>line&1 != 0
			m.lines.IO[line].OutEn = m.chunk.OutputEn
		} else {
			m.lines.IO[line].OutEn = false
		}
	}

	// Standard SPI never drives MISO from the master side.
	if m.chunk.Mode == spi.Single {
		m.lines.IO[1].OutEn = false
	}
}

// sampleGroup latches the input lines of one shift step into the capture
// register. Select-only chunks with the clock held sample nothing.
func (m *middleware) sampleGroup(step int, in [spi.NumLines]bool) {
	if !m.chunk.ClockEn || !m.chunk.InputEn {
		return
	}

	var group uint32

	for line, level := range m.inputLines(in) {
		if level {
			group |= 1 << line
		}
	}

	m.capture = spi.PlaceGroup(
		m.capture, group, m.chunk.Length, step, m.chunk.Mode, m.dir)
}

// inputLines picks the lines that carry inbound data in the current mode.
func (m *middleware) inputLines(in [spi.NumLines]bool) []bool {
	switch m.chunk.Mode {
	case spi.ThreeWire:
		return in[0:1]
	case spi.Single:
		return in[1:2]
	case spi.Dual:
		return in[0:2]
	default:
		return in[0:4]
	}
}

// finishChunk closes the current chunk: the capture is emitted upstream as a
// completion, and the selects drop only if this was the last chunk of the
// transfer. Output-only chunks still report completion, with an all-zero
// capture, so the front-end status pipe sees every chunk exactly once.
func (m *middleware) finishChunk() {
	m.queueCapture()

	if m.chunk.Last && !m.chunk.Hold {
		m.lines.CS = 0
		m.lines.SCK = m.clock.Pol()
		m.clearOutputs()
		m.bus.Step(m.lines)

		m.state = stateIdle

		return
	}

	// Back-to-back reload keeps the selects asserted with no idle gap.
	if !m.tryReload() {
		m.state = stateDrain
	}
}

func (m *middleware) queueCapture() {
	chunk := spi.Chunk{
		Data: spi.PackChunk(
			m.capture, m.chunk.Length, m.chunk.Mode, m.dir),
		Length:  m.chunk.Length,
		Mode:    m.chunk.Mode,
		Last:    m.chunk.Last,
		New:     m.chunk.New,
		Hold:    m.chunk.Hold,
		InputEn: m.chunk.InputEn,
	}

	m.pending = spi.ChunkMsgBuilder{}.
		WithSrc(m.RxPort.AsRemote()).
		WithDst(m.upstream).
		WithChunk(chunk).
		Build()

	m.sendCaptured()
}

func (m *middleware) sendCaptured() bool {
	if m.pending == nil {
		return false
	}

	if err := m.RxPort.Send(m.pending); err != nil {
		return false
	}

	m.pending = nil

	return true
}

func (m *middleware) applySelects() {
	m.lines.CS = m.chunk.SelectMask
	m.lines.SCKEn = m.chunk.ClockEn

	if !m.chunk.ClockEn {
		m.lines.SCK = m.clock.Pol()
	}
}

func (m *middleware) setupOutput() {
	if !m.clock.Pha() {
		m.driveGroup(0)
	}
}

func (m *middleware) clearOutputs() {
	for line := range m.lines.IO {
		m.lines.IO[line].OutEn = false
	}
}
