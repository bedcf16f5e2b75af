package spisys_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sockitsim/spisim/spi"
	"github.com/sockitsim/spisim/spi/ser"
	"github.com/sockitsim/spisim/spi/slave"
	"github.com/sockitsim/spisim/spisys"
)

// recordingBus keeps every line-state sample shown to the attached device.
type recordingBus struct {
	inner  ser.Bus
	states []ser.LineState
}

func (b *recordingBus) Step(ls ser.LineState) [spi.NumLines]bool {
	b.states = append(b.states, ls)

	return b.inner.Step(ls)
}

// risingEdges returns the line state at every rising serial clock edge.
func (b *recordingBus) risingEdges() []ser.LineState {
	var edges []ser.LineState
	for i := 1; i < len(b.states); i++ {
		if b.states[i].SCK && !b.states[i-1].SCK {
			edges = append(edges, b.states[i])
		}
	}

	return edges
}

// buildSimulation creates a monitoring-free simulation whose trace database
// lives in a scratch directory.
func buildSimulation() (*spisys.Simulation, func()) {
	dir, err := os.MkdirTemp("", "spisim_test")
	Expect(err).NotTo(HaveOccurred())

	s := spisys.MakeBuilder().
		WithoutMonitoring().
		WithOutputFileName(filepath.Join(dir, "trace")).
		Build()

	return s, func() {
		s.Terminate()
		os.RemoveAll(dir)
	}
}

// alignData places an n-bit payload where the data register expects it for
// the given shift direction.
func alignData(v uint32, n int, dir spi.ShiftDir) uint32 {
	if dir == spi.LSBFirst {
		return v
	}

	return v << (spi.MaxCommandBits - n)
}

// transfer runs one full-duplex command through the register file and
// returns the captured data register.
func transfer(dp *spisys.Datapath, data uint32, length int, mode spi.IOMode,
) uint32 {
	dp.WriteReg(spi.RegDat, data)
	dp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
		Length:     length,
		Mode:       mode,
		OutputEn:   true,
		InputEn:    true,
		ClockEn:    true,
		SelectMask: 0x01,
		Last:       true,
	}, spi.RemainderLast, true))

	for dp.ReadReg(spi.RegCtl)&spi.CtlBusyMask != 0 {
		Expect(dp.Run()).To(Succeed())
	}

	return dp.ReadReg(spi.RegDat)
}

var _ = Describe("Datapath with a loopback device", func() {
	var (
		simulation *spisys.Simulation
		cleanup    func()
	)

	BeforeEach(func() {
		simulation, cleanup = buildSimulation()
	})

	AfterEach(func() {
		cleanup()
	})

	DescribeTable("should capture back exactly what it shifted out",
		func(clock spi.ClockMode, dir spi.ShiftDir, mode spi.IOMode) {
			dp := spisys.MakeDatapathBuilder().
				WithSimulation(simulation).
				Build("Datapath")

			dp.WriteReg(spi.RegCfg, spi.EncodeCfg(clock, dir))

			r := mode.Radix()
			for _, length := range []int{r, 8, 12, 20, 32} {
				if length%r != 0 {
					continue
				}

				payload := uint32(0xB5A0F0C3) >> (32 - length)
				sent := alignData(payload, length, dir)

				Expect(transfer(dp, sent, length, mode)).
					To(Equal(sent), "length %d", length)
			}
		},
		Entry("mode0 msb 3-wire", spi.Mode0, spi.MSBFirst, spi.ThreeWire),
		Entry("mode0 msb single", spi.Mode0, spi.MSBFirst, spi.Single),
		Entry("mode0 msb dual", spi.Mode0, spi.MSBFirst, spi.Dual),
		Entry("mode0 msb quad", spi.Mode0, spi.MSBFirst, spi.Quad),
		Entry("mode1 msb single", spi.Mode1, spi.MSBFirst, spi.Single),
		Entry("mode2 msb single", spi.Mode2, spi.MSBFirst, spi.Single),
		Entry("mode3 msb single", spi.Mode3, spi.MSBFirst, spi.Single),
		Entry("mode0 lsb single", spi.Mode0, spi.LSBFirst, spi.Single),
		Entry("mode0 lsb quad", spi.Mode0, spi.LSBFirst, spi.Quad),
		Entry("mode3 lsb dual", spi.Mode3, spi.LSBFirst, spi.Dual),
	)

	It("should survive remainder-first packeting", func() {
		dp := spisys.MakeDatapathBuilder().
			WithSimulation(simulation).
			Build("Datapath")

		dp.WriteReg(spi.RegCfg, spi.EncodeCfg(spi.Mode0, spi.MSBFirst))

		sent := alignData(0xABCDE, 20, spi.MSBFirst)
		dp.WriteReg(spi.RegDat, sent)
		dp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
			Length:     20,
			Mode:       spi.Single,
			OutputEn:   true,
			InputEn:    true,
			ClockEn:    true,
			SelectMask: 0x01,
			Last:       true,
		}, spi.RemainderFirst, true))

		for dp.ReadReg(spi.RegCtl)&spi.CtlBusyMask != 0 {
			Expect(dp.Run()).To(Succeed())
		}

		Expect(dp.ReadReg(spi.RegDat)).To(Equal(sent))
	})

	It("should hold chip-select across a chained command pair", func() {
		bus := &recordingBus{inner: slave.NewLoopback()}
		dp := spisys.MakeDatapathBuilder().
			WithSimulation(simulation).
			WithBus(bus).
			Build("Datapath")

		dp.WriteReg(spi.RegCfg, spi.EncodeCfg(spi.Mode0, spi.MSBFirst))

		// Command byte out over one line, then a word clocked back in
		// over four, without releasing the device in between.
		dp.WriteReg(spi.RegDat, uint32(slave.OpFastRead)<<24)
		dp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
			Length:     8,
			Mode:       spi.Single,
			OutputEn:   true,
			ClockEn:    true,
			SelectMask: 0x01,
		}, spi.RemainderLast, true))

		for dp.ReadReg(spi.RegCtl)&spi.CtlBusyMask != 0 {
			Expect(dp.Run()).To(Succeed())
		}

		dp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
			Length:     32,
			Mode:       spi.Quad,
			InputEn:    true,
			ClockEn:    true,
			SelectMask: 0x01,
			Last:       true,
		}, spi.RemainderLast, true))

		for dp.ReadReg(spi.RegCtl)&spi.CtlBusyMask != 0 {
			Expect(dp.Run()).To(Succeed())
		}

		Expect(bus.states).NotTo(BeEmpty())

		// 8 serial clocks for the byte, 8 for the quad word.
		edges := bus.risingEdges()
		Expect(edges).To(HaveLen(16))

		var cmdByte uint8
		for _, s := range edges[:8] {
			cmdByte <<= 1
			if s.IO[0].Out {
				cmdByte |= 1
			}
		}
		Expect(cmdByte).To(Equal(uint8(slave.OpFastRead)))

		for i, s := range bus.states[:len(bus.states)-1] {
			Expect(s.CS).To(Equal(uint8(0x01)), "state %d", i)
		}
		Expect(bus.states[len(bus.states)-1].CS).To(BeZero())
	})

	It("should clear busy on output-only commands", func() {
		dp := spisys.MakeDatapathBuilder().
			WithSimulation(simulation).
			Build("Datapath")

		dp.WriteReg(spi.RegDat, 0xFF000000)
		dp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
			Length:     8,
			Mode:       spi.Single,
			OutputEn:   true,
			ClockEn:    true,
			SelectMask: 0x01,
			Last:       true,
		}, spi.RemainderLast, true))

		Expect(dp.ReadReg(spi.RegCtl) & spi.CtlBusy).NotTo(BeZero())

		Expect(dp.Run()).To(Succeed())

		Expect(dp.ReadReg(spi.RegCtl) & spi.CtlBusyMask).To(BeZero())
		Expect(dp.ReadReg(spi.RegDat)).To(Equal(uint32(0xFF000000)))
	})
})

var _ = Describe("Datapath with a flash device", func() {
	var (
		simulation *spisys.Simulation
		cleanup    func()
		mem        []byte
	)

	BeforeEach(func() {
		simulation, cleanup = buildSimulation()

		mem = make([]byte, 1024)
		for i := range mem {
			mem[i] = byte(i % 251)
		}
	})

	AfterEach(func() {
		cleanup()
	})

	// fastRead performs the two-command chained sequence a fast-read needs:
	// opcode and address shifted out under a held select, then data words
	// clocked back in the read mode.
	fastRead := func(dp *spisys.Datapath, readMode spi.IOMode, addr uint32,
		words int,
	) []uint32 {
		dp.WriteReg(spi.RegCfg, spi.EncodeCfg(spi.Mode0, spi.MSBFirst))

		dp.WriteReg(spi.RegDat, slave.OpFastRead<<24|addr&0x00ffffff)
		dp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
			Length:     32,
			Mode:       spi.Single,
			OutputEn:   true,
			ClockEn:    true,
			SelectMask: 0x01,
			Last:       false,
		}, spi.RemainderLast, true))

		for dp.ReadReg(spi.RegCtl)&spi.CtlBusyMask != 0 {
			Expect(dp.Run()).To(Succeed())
		}

		out := make([]uint32, 0, words)
		for w := 0; w < words; w++ {
			dp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
				Length:     32,
				Mode:       readMode,
				InputEn:    true,
				ClockEn:    true,
				SelectMask: 0x01,
				Last:       w == words-1,
			}, spi.RemainderLast, true))

			for dp.ReadReg(spi.RegCtl)&spi.CtlBusyMask != 0 {
				Expect(dp.Run()).To(Succeed())
			}

			out = append(out, dp.ReadReg(spi.RegDat))
		}

		return out
	}

	expectWords := func(got []uint32, addr uint32) {
		for w, v := range got {
			o := addr + uint32(4*w)
			want := uint32(mem[o])<<24 | uint32(mem[o+1])<<16 |
				uint32(mem[o+2])<<8 | uint32(mem[o+3])
			Expect(v).To(Equal(want), "word %d", w)
		}
	}

	DescribeTable("should read memory words back intact",
		func(readMode spi.IOMode) {
			dp := spisys.MakeDatapathBuilder().
				WithSimulation(simulation).
				WithBus(slave.NewFlash(mem, readMode)).
				Build("Datapath")

			got := fastRead(dp, readMode, 0x40, 4)
			expectWords(got, 0x40)
		},
		Entry("single", spi.Single),
		Entry("dual", spi.Dual),
		Entry("quad", spi.Quad),
	)

	It("should read erased bytes past the end of the image", func() {
		dp := spisys.MakeDatapathBuilder().
			WithSimulation(simulation).
			WithBus(slave.NewFlash(mem, spi.Single)).
			Build("Datapath")

		got := fastRead(dp, spi.Single, uint32(len(mem)), 1)
		Expect(got[0]).To(Equal(uint32(0xFFFFFFFF)))
	})
})

var _ = Describe("Simulation", func() {
	It("should index components and ports by name", func() {
		simulation, cleanup := buildSimulation()
		defer cleanup()

		dp := spisys.MakeDatapathBuilder().
			WithSimulation(simulation).
			Build("Datapath")

		Expect(simulation.GetComponentByName("Datapath.SER")).
			To(BeIdenticalTo(dp.SER))
		Expect(simulation.GetPortByName("Datapath.RegCtl.CmdPort")).
			To(BeIdenticalTo(dp.RegCtl.CmdPort))
	})

	It("should reject duplicate component names", func() {
		simulation, cleanup := buildSimulation()
		defer cleanup()

		spisys.MakeDatapathBuilder().
			WithSimulation(simulation).
			Build("Datapath")

		Expect(func() {
			spisys.MakeDatapathBuilder().
				WithSimulation(simulation).
				Build("Datapath")
		}).To(Panic())
	})
})
