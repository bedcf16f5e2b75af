package ser_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/sim/directconnection"
	"github.com/sockitsim/spisim/spi"
	"github.com/sockitsim/spisim/spi/ser"
	"github.com/sockitsim/spisim/spi/slave"
)

// recordingBus logs every line-state sample it is shown and forwards to an
// optional inner device.
type recordingBus struct {
	inner  ser.Bus
	states []ser.LineState
}

func (b *recordingBus) Step(ls ser.LineState) [spi.NumLines]bool {
	b.states = append(b.states, ls)

	if b.inner == nil {
		return [spi.NumLines]bool{}
	}

	return b.inner.Step(ls)
}

func (b *recordingBus) risingEdges() int {
	n := 0
	for i := 1; i < len(b.states); i++ {
		if b.states[i].SCK && !b.states[i-1].SCK {
			n++
		}
	}

	return n
}

type chunkSource struct {
	*sim.TickingComponent

	Port   sim.Port
	toSend []*spi.ChunkMsg
}

func newChunkSource(engine sim.Engine, name string) *chunkSource {
	s := new(chunkSource)
	s.TickingComponent = sim.NewTickingComponent(name, engine, 2, s)
	s.Port = sim.NewPort(s, 4, 4, name+".Port")

	return s
}

func (s *chunkSource) Tick() bool {
	if len(s.toSend) == 0 {
		return false
	}

	if err := s.Port.Send(s.toSend[0]); err != nil {
		return false
	}

	s.toSend = s.toSend[1:]

	return true
}

type chunkSink struct {
	*sim.TickingComponent

	Port     sim.Port
	received []spi.Chunk
}

func newChunkSink(engine sim.Engine, name string) *chunkSink {
	s := new(chunkSink)
	s.TickingComponent = sim.NewTickingComponent(name, engine, 2, s)
	s.Port = sim.NewPort(s, 4, 4, name+".Port")

	return s
}

func (s *chunkSink) Tick() bool {
	msg := s.Port.RetrieveIncoming()
	if msg == nil {
		return false
	}

	s.received = append(s.received, msg.(*spi.ChunkMsg).Chunk)

	return true
}

var _ = Describe("Comp", func() {
	var (
		engine sim.Engine
		source *chunkSource
		sink   *chunkSink
		bus    *recordingBus
		comp   *ser.Comp
	)

	buildWith := func(clock spi.ClockMode, dir spi.ShiftDir) {
		engine = sim.NewSerialEngine()
		source = newChunkSource(engine, "Source")
		sink = newChunkSink(engine, "Sink")
		bus = &recordingBus{inner: slave.NewLoopback()}

		comp = ser.MakeBuilder().
			WithEngine(engine).
			WithSCLKFreq(1).
			WithClockMode(clock).
			WithShiftDir(dir).
			WithBus(bus).
			WithUpstream(sink.Port.AsRemote()).
			Build("SER")

		conn := directconnection.MakeBuilder().
			WithEngine(engine).
			WithFreq(2).
			Build("Conn")
		conn.PlugIn(source.Port)
		conn.PlugIn(sink.Port)
		conn.PlugIn(comp.TxPort)
		conn.PlugIn(comp.RxPort)
	}

	send := func(chunks ...spi.Chunk) {
		for _, c := range chunks {
			source.toSend = append(source.toSend,
				spi.ChunkMsgBuilder{}.
					WithSrc(source.Port.AsRemote()).
					WithDst(comp.TxPort.AsRemote()).
					WithChunk(c).
					Build())
		}

		source.TickLater()
	}

	fullChunk := func(data uint32, mode spi.IOMode, dir spi.ShiftDir,
	) spi.Chunk {
		return spi.Chunk{
			Data:       spi.PackChunk(data, 8, mode, dir),
			Length:     8,
			Mode:       mode,
			Last:       true,
			New:        true,
			OutputEn:   true,
			InputEn:    true,
			ClockEn:    true,
			SelectMask: 0x01,
		}
	}

	It("should shift the exact programmed number of clocks", func() {
		buildWith(spi.Mode0, spi.MSBFirst)

		send(fullChunk(0xA5, spi.Single, spi.MSBFirst))

		Expect(engine.Run()).To(Succeed())

		Expect(bus.risingEdges()).To(Equal(8))

		// The clock rests at idle polarity on both ends of the transfer.
		Expect(bus.states[0].SCK).To(BeFalse())
		Expect(bus.states[len(bus.states)-1].SCK).To(BeFalse())
	})

	It("should assert the selects for the whole transfer", func() {
		buildWith(spi.Mode0, spi.MSBFirst)

		send(fullChunk(0xA5, spi.Single, spi.MSBFirst))

		Expect(engine.Run()).To(Succeed())

		last := len(bus.states) - 1
		for i, ls := range bus.states {
			if i == last {
				Expect(ls.CS).To(Equal(uint8(0)))
			} else {
				Expect(ls.CS).To(Equal(uint8(0x01)), "state %d", i)
			}
		}
	})

	It("should never drive the miso line in single mode", func() {
		buildWith(spi.Mode0, spi.MSBFirst)

		send(fullChunk(0xFF, spi.Single, spi.MSBFirst))

		Expect(engine.Run()).To(Succeed())

		for i, ls := range bus.states {
			Expect(ls.IO[1].OutEn).To(BeFalse(), "state %d", i)
		}
	})

	DescribeTable("should capture looped-back data bit-exactly",
		func(clock spi.ClockMode, dir spi.ShiftDir, mode spi.IOMode) {
			buildWith(clock, dir)

			send(fullChunk(0xA7, mode, dir))

			Expect(engine.Run()).To(Succeed())

			Expect(sink.received).To(HaveLen(1))
			got := spi.UnpackChunk(sink.received[0].Data, 8, mode, dir)
			Expect(got).To(Equal(uint32(0xA7)))
		},
		Entry("mode0 msb single", spi.Mode0, spi.MSBFirst, spi.Single),
		Entry("mode1 msb single", spi.Mode1, spi.MSBFirst, spi.Single),
		Entry("mode2 msb single", spi.Mode2, spi.MSBFirst, spi.Single),
		Entry("mode3 msb single", spi.Mode3, spi.MSBFirst, spi.Single),
		Entry("mode0 lsb single", spi.Mode0, spi.LSBFirst, spi.Single),
		Entry("mode0 msb 3-wire", spi.Mode0, spi.MSBFirst, spi.ThreeWire),
		Entry("mode0 msb dual", spi.Mode0, spi.MSBFirst, spi.Dual),
		Entry("mode0 msb quad", spi.Mode0, spi.MSBFirst, spi.Quad),
		Entry("mode3 lsb quad", spi.Mode3, spi.LSBFirst, spi.Quad),
	)

	It("should idle the clock high for mode2", func() {
		buildWith(spi.Mode2, spi.MSBFirst)

		send(fullChunk(0x3C, spi.Single, spi.MSBFirst))

		Expect(engine.Run()).To(Succeed())

		Expect(bus.states[0].SCK).To(BeTrue())
		Expect(bus.states[len(bus.states)-1].SCK).To(BeTrue())
	})

	It("should hold the clock still on a select-only chunk", func() {
		buildWith(spi.Mode0, spi.MSBFirst)

		c := fullChunk(0, spi.Single, spi.MSBFirst)
		c.OutputEn = false
		c.InputEn = false
		c.ClockEn = false
		send(c)

		Expect(engine.Run()).To(Succeed())

		for i, ls := range bus.states {
			Expect(ls.SCK).To(BeFalse(), "state %d", i)
			Expect(ls.SCKEn).To(BeFalse(), "state %d", i)
		}

		// The completion still comes back, with nothing captured.
		Expect(sink.received).To(HaveLen(1))
		Expect(sink.received[0].Data).To(Equal(uint32(0)))
	})

	It("should keep the selects asserted across chained chunks", func() {
		buildWith(spi.Mode0, spi.MSBFirst)

		first := fullChunk(0x0B, spi.Single, spi.MSBFirst)
		first.Last = false
		second := fullChunk(0x5A, spi.Single, spi.MSBFirst)
		second.New = false

		send(first, second)

		Expect(engine.Run()).To(Succeed())

		last := len(bus.states) - 1
		for i, ls := range bus.states[:last] {
			Expect(ls.CS).To(Equal(uint8(0x01)), "state %d", i)
		}
		Expect(bus.states[last].CS).To(Equal(uint8(0)))

		Expect(bus.risingEdges()).To(Equal(16))
		Expect(sink.received).To(HaveLen(2))
	})

	It("should keep the selects asserted after a held last chunk", func() {
		buildWith(spi.Mode0, spi.MSBFirst)

		held := fullChunk(0xC3, spi.Single, spi.MSBFirst)
		held.Hold = true
		send(held)

		Expect(engine.Run()).To(Succeed())

		for i, ls := range bus.states {
			Expect(ls.CS).To(Equal(uint8(0x01)), "state %d", i)
		}
		Expect(comp.Lines().CS).To(Equal(uint8(0x01)))
	})

	It("should copy the framing flags onto the capture chunk", func() {
		buildWith(spi.Mode0, spi.MSBFirst)

		held := fullChunk(0x81, spi.Single, spi.MSBFirst)
		held.Hold = true
		send(held)

		Expect(engine.Run()).To(Succeed())

		Expect(sink.received).To(HaveLen(1))
		Expect(sink.received[0].Last).To(BeTrue())
		Expect(sink.received[0].New).To(BeTrue())
		Expect(sink.received[0].Hold).To(BeTrue())
		Expect(sink.received[0].InputEn).To(BeTrue())
		Expect(sink.received[0].Length).To(Equal(8))
	})

	It("should move the idle clock when reconfigured", func() {
		buildWith(spi.Mode0, spi.MSBFirst)

		Expect(comp.Lines().SCK).To(BeFalse())

		comp.Configure(spi.Mode3, spi.MSBFirst)
		Expect(comp.Lines().SCK).To(BeTrue())
	})
})
