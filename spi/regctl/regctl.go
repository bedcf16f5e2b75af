// Package regctl provides the register-mapped front-end of the datapath. It
// exposes the four-word register file software talks to, turns control
// register writes into commands, and captures reassembled read data.
package regctl

import (
	"log"

	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi"
)

// A ConfigSink receives the decoded configuration register each time it is
// written. The datapath components behind the front-end register themselves
// as sinks.
type ConfigSink interface {
	ApplyConfig(clock spi.ClockMode, dir spi.ShiftDir, pack spi.PackMode)
}

// Comp is the register front-end component. Commands leave through CmdPort;
// completions and reassembled read data arrive at RspPort.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	CmdPort sim.Port
	RspPort sim.Port

	downstream sim.RemotePort
	sinks      []ConfigSink
}

// Tick updates the component state.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

// WriteReg writes one register of the file. A control register write with
// the run bit set issues a command; the caller must not issue while the
// busy bits are set.
func (c *Comp) WriteReg(addr int, v uint32) {
	c.Middlewares()[0].(*middleware).writeReg(addr, v)
}

// ReadReg reads one register of the file. The control register reads back
// with the live status bits merged in.
func (c *Comp) ReadReg(addr int) uint32 {
	return c.Middlewares()[0].(*middleware).readReg(addr)
}

type middleware struct {
	*Comp

	regs [4]uint32
	pack spi.PackMode

	outstanding int
	rxPend      bool

	pending *spi.CommandMsg
}

func (m *middleware) Tick() bool {
	madeProgress := false

	madeProgress = m.sendCommand() || madeProgress
	madeProgress = m.acceptResponse() || madeProgress

	return madeProgress
}

func (m *middleware) writeReg(addr int, v uint32) {
	switch addr {
	case spi.RegDat, spi.RegXip:
		m.regs[addr] = v
	case spi.RegCfg:
		m.regs[addr] = v
		m.applyConfig(v)
	case spi.RegCtl:
		m.regs[addr] = v &^ (spi.CtlRun | spi.CtlBusyMask)

		if v&spi.CtlRun != 0 {
			m.issue(v)
		}
	default:
		log.Panicf("no register at address %d", addr)
	}
}

func (m *middleware) readReg(addr int) uint32 {
	v := m.regs[addr]

	if addr == spi.RegCtl {
		if m.outstanding > 0 {
			v |= spi.CtlBusy
		}

		if m.rxPend {
			v |= spi.CtlRxPend
		}
	}

	return v
}

func (m *middleware) applyConfig(v uint32) {
	clock, dir := spi.DecodeCfg(v)

	for _, s := range m.sinks {
		s.ApplyConfig(clock, dir, m.pack)
	}
}

// issue turns one control write into a command in flight. The command data
// comes from the data register; the packeting bit is latched so later
// configuration writes reapply it.
func (m *middleware) issue(v uint32) {
	if m.outstanding > 0 {
		log.Panicf("%s: command issued while busy", m.Name())
	}

	cmd, pack := spi.DecodeCtl(v, m.regs[spi.RegDat])
	cmd.MustBeValid()

	if pack != m.pack {
		m.pack = pack
		m.applyConfig(m.regs[spi.RegCfg])
	}

	m.pending = spi.CommandMsgBuilder{}.
		WithSrc(m.CmdPort.AsRemote()).
		WithDst(m.downstream).
		WithCmd(cmd).
		Build()

	m.outstanding++
	m.rxPend = cmd.InputEn

	m.TickLater()
}

func (m *middleware) sendCommand() bool {
	if m.pending == nil {
		return false
	}

	if err := m.CmdPort.Send(m.pending); err != nil {
		return false
	}

	m.pending = nil

	return true
}

func (m *middleware) acceptResponse() bool {
	msg := m.RspPort.PeekIncoming()
	if msg == nil {
		return false
	}

	cmd := msg.(*spi.CommandMsg).Cmd

	if m.outstanding == 0 {
		log.Panicf("%s: completion with no command in flight", m.Name())
	}

	m.outstanding--

	if cmd.InputEn {
		m.regs[spi.RegDat] = cmd.Data
		m.rxPend = false
	}

	m.RspPort.RetrieveIncoming()

	return true
}
