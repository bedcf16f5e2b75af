package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sockitsim/spisim/sim"
	"github.com/sockitsim/spisim/spi"
	"github.com/sockitsim/spisim/spi/slave"
	"github.com/sockitsim/spisim/spisys"
)

var runFlags struct {
	busMHz      float64
	sclkMHz     float64
	readMode    string
	addr        uint32
	words       int
	image       string
	trace       bool
	monitor     bool
	monitorPort int
	output      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a flash fast-read through the register file.",
	RunE:  runFastRead,
}

func init() {
	f := runCmd.Flags()
	f.Float64Var(&runFlags.busMHz, "bus-mhz",
		envFloat("SPISIM_BUS_MHZ", 100), "control-domain clock in MHz")
	f.Float64Var(&runFlags.sclkMHz, "sclk-mhz",
		envFloat("SPISIM_SCLK_MHZ", 10), "serial clock in MHz")
	f.StringVar(&runFlags.readMode, "read-mode",
		envString("SPISIM_READ_MODE", "quad"),
		"io mode of the data phase: 3wire, single, dual or quad")
	f.Uint32Var(&runFlags.addr, "addr", 0x5a0000, "flash byte address")
	f.IntVar(&runFlags.words, "words", 1, "number of 32-bit words to read")
	f.StringVar(&runFlags.image, "image", "",
		"file providing the flash content, a test pattern if empty")
	f.BoolVar(&runFlags.trace, "trace", false,
		"record line transitions and transfers to the trace database")
	f.BoolVar(&runFlags.monitor, "monitor",
		envString("SPISIM_MONITOR", "") != "", "start the monitoring server")
	f.IntVar(&runFlags.monitorPort, "monitor-port",
		envInt("SPISIM_MONITOR_PORT", 0), "port of the monitoring server")
	f.StringVar(&runFlags.output, "output",
		envString("SPISIM_OUTPUT", ""),
		"trace database name, without extension")

	rootCmd.AddCommand(runCmd)
}

func runFastRead(_ *cobra.Command, _ []string) error {
	readMode, err := parseIOMode(runFlags.readMode)
	if err != nil {
		return err
	}

	mem, err := flashImage()
	if err != nil {
		return err
	}

	s := buildSimulation()
	defer s.Terminate()

	flash := slave.NewFlash(mem, readMode)

	dpBuilder := spisys.MakeDatapathBuilder().
		WithSimulation(s).
		WithBusFreq(sim.Freq(runFlags.busMHz) * sim.MHz).
		WithSCLKFreq(sim.Freq(runFlags.sclkMHz) * sim.MHz).
		WithBus(flash)
	if runFlags.trace {
		dpBuilder = dpBuilder.WithLineTracing()
	}

	dp := dpBuilder.Build("Datapath")

	if runFlags.trace {
		tracer := spisys.NewTransferTracer(
			s.GetEngine(), s.GetDataRecorder(), "transfer_trace")
		dp.RegCtl.RspPort.AcceptHook(tracer)
	}

	return fastRead(dp, readMode)
}

// fastRead replays the firmware sequence: configure, send the command and
// address under one chip-select assertion, then clock the data words in.
func fastRead(dp *spisys.Datapath, readMode spi.IOMode) error {
	dp.WriteReg(spi.RegCfg, spi.EncodeCfg(spi.Mode0, spi.MSBFirst))

	header := slave.OpFastRead<<24 | runFlags.addr&0x00ffffff
	dp.WriteReg(spi.RegDat, header)
	dp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
		Length:     32,
		Mode:       spi.Single,
		OutputEn:   true,
		ClockEn:    true,
		SelectMask: 1,
	}, spi.RemainderLast, true))

	if err := pollIdle(dp); err != nil {
		return err
	}

	for i := 0; i < runFlags.words; i++ {
		dp.WriteReg(spi.RegCtl, spi.EncodeCtl(spi.Command{
			Length:     32,
			Mode:       readMode,
			InputEn:    true,
			ClockEn:    true,
			SelectMask: 1,
			Last:       i == runFlags.words-1,
		}, spi.RemainderLast, true))

		if err := pollIdle(dp); err != nil {
			return err
		}

		word := dp.ReadReg(spi.RegDat)
		fmt.Printf("0x%06x: 0x%08x\n", runFlags.addr+uint32(4*i), word)
	}

	return nil
}

func pollIdle(dp *spisys.Datapath) error {
	for dp.ReadReg(spi.RegCtl)&spi.CtlBusyMask != 0 {
		if err := dp.Run(); err != nil {
			return err
		}
	}

	return nil
}

func buildSimulation() *spisys.Simulation {
	builder := spisys.MakeBuilder()

	if runFlags.monitor {
		if runFlags.monitorPort > 0 {
			builder = builder.WithMonitorPort(runFlags.monitorPort)
		}
	} else {
		builder = builder.WithoutMonitoring()
	}

	if runFlags.output != "" {
		builder = builder.WithOutputFileName(runFlags.output)
	}

	return builder.Build()
}

func flashImage() ([]byte, error) {
	if runFlags.image != "" {
		return os.ReadFile(runFlags.image)
	}

	size := int(runFlags.addr) + 4*runFlags.words
	mem := make([]byte, size)
	for i := range mem {
		mem[i] = byte(i % 251)
	}

	return mem, nil
}

func parseIOMode(s string) (spi.IOMode, error) {
	switch strings.ToLower(s) {
	case "3wire":
		return spi.ThreeWire, nil
	case "single":
		return spi.Single, nil
	case "dual":
		return spi.Dual, nil
	case "quad":
		return spi.Quad, nil
	default:
		return 0, fmt.Errorf("unknown io mode %q", s)
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}

	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}
