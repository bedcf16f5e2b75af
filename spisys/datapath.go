package spisys

import (
	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/sim/directconnection"
	"github.com/sockitsim/spisim/spi"
	"github.com/sockitsim/spisim/spi/cdc"
	"github.com/sockitsim/spisim/spi/regctl"
	"github.com/sockitsim/spisim/spi/rpi"
	"github.com/sockitsim/spisim/spi/rpo"
	"github.com/sockitsim/spisim/spi/ser"
	"github.com/sockitsim/spisim/spi/slave"
)

// A Datapath is one assembled SPI master: register front-end, repackaging
// stages and crossing channels in place. Software talks to it through the
// register file.
type Datapath struct {
	RegCtl *regctl.Comp
	RPO    *rpo.Comp
	RPI    *rpi.Comp
	SER    *ser.Comp
	OutCDC *cdc.Comp
	InCDC  *cdc.Comp

	engine sim.Engine
}

// ApplyConfig fans a configuration register write out to every stage that
// holds quasi-static settings.
func (d *Datapath) ApplyConfig(
	clock spi.ClockMode,
	dir spi.ShiftDir,
	pack spi.PackMode,
) {
	d.RPO.Configure(dir, pack)
	d.RPI.Configure(dir)
	d.SER.Configure(clock, dir)
}

// WriteReg writes one register of the front-end file.
func (d *Datapath) WriteReg(addr int, v uint32) {
	d.RegCtl.WriteReg(addr, v)
}

// ReadReg reads one register of the front-end file.
func (d *Datapath) ReadReg(addr int) uint32 {
	return d.RegCtl.ReadReg(addr)
}

// Run drains all scheduled events. Afterwards every issued command has
// completed and the busy bits read back clear.
func (d *Datapath) Run() error {
	return d.engine.Run()
}

// DatapathBuilder builds datapaths.
type DatapathBuilder struct {
	simulation *Simulation
	busFreq    sim.Freq
	sclkFreq   sim.Freq
	fifoDepth  int
	clock      spi.ClockMode
	dir        spi.ShiftDir
	pack       spi.PackMode
	bus        ser.Bus
	traceLines bool
}

// MakeDatapathBuilder creates a default builder: a 100MHz control bus, a
// 10MHz serial clock, fifo depth 4 and a loopback device on the lines.
func MakeDatapathBuilder() DatapathBuilder {
	return DatapathBuilder{
		busFreq:   100 * sim.MHz,
		sclkFreq:  10 * sim.MHz,
		fifoDepth: 4,
		bus:       slave.NewLoopback(),
	}
}

// WithSimulation sets the simulation the datapath belongs to.
func (b DatapathBuilder) WithSimulation(s *Simulation) DatapathBuilder {
	b.simulation = s
	return b
}

// WithBusFreq sets the control-domain clock frequency.
func (b DatapathBuilder) WithBusFreq(f sim.Freq) DatapathBuilder {
	b.busFreq = f
	return b
}

// WithSCLKFreq sets the serial clock frequency.
func (b DatapathBuilder) WithSCLKFreq(f sim.Freq) DatapathBuilder {
	b.sclkFreq = f
	return b
}

// WithFifoDepth sets the depth of both crossing fifos. It must be a power of
// two.
func (b DatapathBuilder) WithFifoDepth(d int) DatapathBuilder {
	b.fifoDepth = d
	return b
}

// WithClockMode sets the initial SPI clock mode.
func (b DatapathBuilder) WithClockMode(c spi.ClockMode) DatapathBuilder {
	b.clock = c
	return b
}

// WithShiftDir sets the initial bit order.
func (b DatapathBuilder) WithShiftDir(d spi.ShiftDir) DatapathBuilder {
	b.dir = d
	return b
}

// WithPackMode sets the initial packeting mode.
func (b DatapathBuilder) WithPackMode(p spi.PackMode) DatapathBuilder {
	b.pack = p
	return b
}

// WithBus attaches the behavioral model of the devices on the lines.
func (b DatapathBuilder) WithBus(bus ser.Bus) DatapathBuilder {
	b.bus = bus
	return b
}

// WithLineTracing records every line-state update into the simulation's
// trace database.
func (b DatapathBuilder) WithLineTracing() DatapathBuilder {
	b.traceLines = true
	return b
}

// Build creates the datapath and registers its components with the
// simulation.
func (b DatapathBuilder) Build(name string) *Datapath {
	engine := b.simulation.GetEngine()

	d := &Datapath{engine: engine}

	bus := b.bus
	if b.traceLines {
		bus = NewLineTracer(engine, b.simulation.GetDataRecorder(),
			"line_trace", bus)
	}

	// The response path is wired last, once the front-end exists; every
	// other stage only needs the stage after it.
	d.RPI = rpi.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.busFreq).
		WithShiftDir(b.dir).
		Build(name + ".RPI")

	d.InCDC = cdc.MakeBuilder().
		WithEngine(engine).
		WithWriteFreq(b.sclkFreq).
		WithReadFreq(b.busFreq).
		WithDepth(b.fifoDepth).
		WithDownstream(d.RPI.DownPort.AsRemote()).
		Build(name + ".InCDC")

	d.SER = ser.MakeBuilder().
		WithEngine(engine).
		WithSCLKFreq(b.sclkFreq).
		WithClockMode(b.clock).
		WithShiftDir(b.dir).
		WithBus(bus).
		WithUpstream(d.InCDC.UpPort.AsRemote()).
		Build(name + ".SER")

	d.OutCDC = cdc.MakeBuilder().
		WithEngine(engine).
		WithWriteFreq(b.busFreq).
		WithReadFreq(b.sclkFreq).
		WithDepth(b.fifoDepth).
		WithDownstream(d.SER.TxPort.AsRemote()).
		Build(name + ".OutCDC")

	d.RPO = rpo.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.busFreq).
		WithShiftDir(b.dir).
		WithPackMode(b.pack).
		WithDownstream(d.OutCDC.UpPort.AsRemote()).
		Build(name + ".RPO")

	d.RegCtl = regctl.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.busFreq).
		WithDownstream(d.RPO.UpPort.AsRemote()).
		WithConfigSink(d).
		Build(name + ".RegCtl")

	d.RPI.SetUpstream(d.RegCtl.RspPort.AsRemote())

	b.connect(name, d)
	b.register(d)

	return d
}

func (b DatapathBuilder) connect(name string, d *Datapath) {
	engine := b.simulation.GetEngine()

	ctrlConn := directconnection.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.busFreq).
		Build(name + ".CtrlConn")
	ctrlConn.PlugIn(d.RegCtl.CmdPort)
	ctrlConn.PlugIn(d.RegCtl.RspPort)
	ctrlConn.PlugIn(d.RPO.UpPort)
	ctrlConn.PlugIn(d.RPO.DownPort)
	ctrlConn.PlugIn(d.OutCDC.UpPort)
	ctrlConn.PlugIn(d.InCDC.DownPort)
	ctrlConn.PlugIn(d.RPI.DownPort)
	ctrlConn.PlugIn(d.RPI.UpPort)

	// The serial-side connection forwards on the half-clock grid the
	// serializer ticks on.
	serialConn := directconnection.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.sclkFreq * 2).
		Build(name + ".SerialConn")
	serialConn.PlugIn(d.OutCDC.DownPort)
	serialConn.PlugIn(d.SER.TxPort)
	serialConn.PlugIn(d.SER.RxPort)
	serialConn.PlugIn(d.InCDC.UpPort)

	b.simulation.RegisterComponent(ctrlConn)
	b.simulation.RegisterComponent(serialConn)
}

func (b DatapathBuilder) register(d *Datapath) {
	b.simulation.RegisterComponent(d.RegCtl)
	b.simulation.RegisterComponent(d.RPO)
	b.simulation.RegisterComponent(d.RPI)
	b.simulation.RegisterComponent(d.SER)
	b.simulation.RegisterComponent(d.OutCDC)
	b.simulation.RegisterComponent(d.InCDC)
}
