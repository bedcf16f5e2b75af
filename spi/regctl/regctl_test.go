package regctl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/sim/directconnection"
	"github.com/sockitsim/spisim/spi"
)

// echoDatapath stands in for the repackaging pipeline: it completes every
// command it receives, filling in capture data for input-enabled ones.
type echoDatapath struct {
	*sim.TickingComponent

	Port      sim.Port
	respondTo sim.RemotePort

	captureData uint32
	received    []spi.Command
}

func newEchoDatapath(engine sim.Engine, name string) *echoDatapath {
	e := new(echoDatapath)
	e.TickingComponent = sim.NewTickingComponent(name, engine, 1, e)
	e.Port = sim.NewPort(e, 4, 4, name+".Port")

	return e
}

func (e *echoDatapath) Tick() bool {
	msg := e.Port.PeekIncoming()
	if msg == nil {
		return false
	}

	cmd := msg.(*spi.CommandMsg).Cmd
	e.received = append(e.received, cmd)

	if cmd.InputEn {
		cmd.Data = e.captureData
	}

	rsp := spi.CommandMsgBuilder{}.
		WithSrc(e.Port.AsRemote()).
		WithDst(e.respondTo).
		WithCmd(cmd).
		Build()

	if err := e.Port.Send(rsp); err != nil {
		return false
	}

	e.Port.RetrieveIncoming()

	return true
}

// recordingSink records configuration fanout.
type recordingSink struct {
	applied []string
}

func (s *recordingSink) ApplyConfig(clock spi.ClockMode, dir spi.ShiftDir,
	pack spi.PackMode,
) {
	s.applied = append(s.applied,
		clock.String()+" "+dir.String()+" "+pack.String())
}

var _ = Describe("Comp", func() {
	var (
		engine sim.Engine
		echo   *echoDatapath
		sink   *recordingSink
		comp   *Comp
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		echo = newEchoDatapath(engine, "Echo")
		sink = &recordingSink{}

		comp = MakeBuilder().
			WithEngine(engine).
			WithFreq(1).
			WithDownstream(echo.Port.AsRemote()).
			WithConfigSink(sink).
			Build("RegCtl")

		echo.respondTo = comp.RspPort.AsRemote()

		conn := directconnection.MakeBuilder().
			WithEngine(engine).
			WithFreq(1).
			Build("Conn")
		conn.PlugIn(comp.CmdPort)
		conn.PlugIn(comp.RspPort)
		conn.PlugIn(echo.Port)
	})

	It("should store and read back the data and xip registers", func() {
		comp.WriteReg(spi.RegDat, 0xDEADBEEF)
		comp.WriteReg(spi.RegXip, 0x00000001)

		Expect(comp.ReadReg(spi.RegDat)).To(Equal(uint32(0xDEADBEEF)))
		Expect(comp.ReadReg(spi.RegXip)).To(Equal(uint32(0x00000001)))
	})

	It("should panic on an out-of-range register address", func() {
		Expect(func() { comp.WriteReg(4, 0) }).To(Panic())
	})

	It("should fan configuration writes out to the sinks", func() {
		comp.WriteReg(spi.RegCfg, spi.EncodeCfg(spi.Mode3, spi.LSBFirst))

		Expect(sink.applied).To(HaveLen(1))
		Expect(sink.applied[0]).To(
			Equal("mode3 lsb-first remainder-last"))
	})

	It("should store a control write without the run bit", func() {
		v := spi.EncodeCtl(spi.Command{
			Length:     16,
			Mode:       spi.Dual,
			OutputEn:   true,
			ClockEn:    true,
			SelectMask: 0x01,
			Last:       true,
		}, spi.RemainderLast, false)

		comp.WriteReg(spi.RegCtl, v)

		Expect(comp.ReadReg(spi.RegCtl)).To(Equal(v))
		Expect(echo.received).To(BeEmpty())
	})

	It("should never read back the run or status bits as stored", func() {
		v := spi.EncodeCtl(spi.Command{
			Length: 8, Mode: spi.Single, ClockEn: true, Last: true,
		}, spi.RemainderLast, true)

		comp.WriteReg(spi.RegCtl, v)

		stored := comp.ReadReg(spi.RegCtl)
		Expect(stored & spi.CtlRun).To(BeZero())
	})

	It("should issue a command and report busy until completion", func() {
		comp.WriteReg(spi.RegDat, 0xA5000000)
		comp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
			Length:     8,
			Mode:       spi.Single,
			OutputEn:   true,
			ClockEn:    true,
			SelectMask: 0x01,
			Last:       true,
		}, spi.RemainderLast, true))

		Expect(comp.ReadReg(spi.RegCtl) & spi.CtlBusy).NotTo(BeZero())

		Expect(engine.Run()).To(Succeed())

		Expect(comp.ReadReg(spi.RegCtl) & spi.CtlBusyMask).To(BeZero())

		Expect(echo.received).To(HaveLen(1))
		Expect(echo.received[0].Data).To(Equal(uint32(0xA5000000)))
		Expect(echo.received[0].Length).To(Equal(8))
		Expect(echo.received[0].OutputEn).To(BeTrue())
	})

	It("should capture read data into the data register", func() {
		echo.captureData = 0xC3C3C3C3

		comp.WriteReg(spi.RegDat, 0)
		comp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
			Length:  32,
			Mode:    spi.Quad,
			InputEn: true,
			ClockEn: true,
			Last:    true,
		}, spi.RemainderLast, true))

		Expect(comp.ReadReg(spi.RegCtl) & spi.CtlRxPend).NotTo(BeZero())

		Expect(engine.Run()).To(Succeed())

		Expect(comp.ReadReg(spi.RegCtl) & spi.CtlBusyMask).To(BeZero())
		Expect(comp.ReadReg(spi.RegDat)).To(Equal(uint32(0xC3C3C3C3)))
	})

	It("should leave the data register alone on output-only commands",
		func() {
			comp.WriteReg(spi.RegDat, 0x12345678)
			comp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
				Length:   32,
				Mode:     spi.Single,
				OutputEn: true,
				ClockEn:  true,
				Last:     true,
			}, spi.RemainderLast, true))

			Expect(comp.ReadReg(spi.RegCtl) & spi.CtlRxPend).To(BeZero())

			Expect(engine.Run()).To(Succeed())

			Expect(comp.ReadReg(spi.RegDat)).To(Equal(uint32(0x12345678)))
		})

	It("should panic when a command is issued while busy", func() {
		v := spi.EncodeCtl(spi.Command{
			Length: 8, Mode: spi.Single, ClockEn: true, Last: true,
		}, spi.RemainderLast, true)

		comp.WriteReg(spi.RegCtl, v)

		Expect(func() { comp.WriteReg(spi.RegCtl, v) }).To(Panic())
	})

	It("should reapply configuration when the packeting bit flips", func() {
		comp.WriteReg(spi.RegCfg, spi.EncodeCfg(spi.Mode0, spi.MSBFirst))
		Expect(sink.applied).To(HaveLen(1))

		comp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
			Length: 20, Mode: spi.Single, OutputEn: true, ClockEn: true,
			Last: true,
		}, spi.RemainderFirst, true))

		Expect(sink.applied).To(HaveLen(2))
		Expect(sink.applied[1]).To(
			Equal("mode0 msb-first remainder-first"))
	})
})
