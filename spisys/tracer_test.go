package spisys_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sockitsim/spisim/datarecording"
	"github.com/sockitsim/spisim/spi"
	"github.com/sockitsim/spisim/spisys"
)

var _ = Describe("Tracers", func() {
	var (
		dir        string
		simulation *spisys.Simulation
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "spisim_test")
		Expect(err).NotTo(HaveOccurred())

		simulation = spisys.MakeBuilder().
			WithoutMonitoring().
			WithOutputFileName(filepath.Join(dir, "trace")).
			Build()
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("should record the line history of a transfer", func() {
		dp := spisys.MakeDatapathBuilder().
			WithSimulation(simulation).
			WithLineTracing().
			Build("Datapath")

		dp.WriteReg(spi.RegCfg, spi.EncodeCfg(spi.Mode0, spi.MSBFirst))
		transfer(dp, 0xA5000000, 8, spi.Single)

		simulation.Terminate()

		reader := datarecording.NewReader(
			filepath.Join(dir, "trace.sqlite3"))
		defer reader.Close()
		reader.MapTable("line_trace", spisys.LineTraceEntry{})

		rows, total, err := reader.Query(
			context.Background(), "line_trace",
			datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())

		// One state before the first edge, two per shifted bit, one after
		// the selects drop.
		Expect(total).To(BeNumerically(">=", 18))

		risingEdges := 0
		sawSelect := false
		prev := false
		for i, r := range rows {
			entry := r.(*spisys.LineTraceEntry)

			if entry.SCK && !prev && i > 0 {
				risingEdges++
			}
			prev = entry.SCK

			if entry.CS == 0x01 {
				sawSelect = true
			}
		}

		Expect(risingEdges).To(Equal(8))
		Expect(sawSelect).To(BeTrue())

		last := rows[len(rows)-1].(*spisys.LineTraceEntry)
		Expect(last.CS).To(BeZero())
	})

	It("should record completed transfers seen at the front end", func() {
		dp := spisys.MakeDatapathBuilder().
			WithSimulation(simulation).
			Build("Datapath")

		dp.RegCtl.RspPort.AcceptHook(spisys.NewTransferTracer(
			simulation.GetEngine(),
			simulation.GetDataRecorder(),
			"transfer_trace"))

		dp.WriteReg(spi.RegCfg, spi.EncodeCfg(spi.Mode0, spi.MSBFirst))
		transfer(dp, 0xC3000000, 8, spi.Single)

		simulation.Terminate()

		reader := datarecording.NewReader(
			filepath.Join(dir, "trace.sqlite3"))
		defer reader.Close()
		reader.MapTable("transfer_trace", spisys.TransferTraceEntry{})

		rows, total, err := reader.Query(
			context.Background(), "transfer_trace",
			datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))

		entry := rows[0].(*spisys.TransferTraceEntry)
		Expect(entry.Length).To(Equal(8))
		Expect(entry.Mode).To(Equal("spi"))
		Expect(entry.Data).To(Equal(uint32(0xC3000000)))
		Expect(entry.InputEn).To(BeTrue())
	})
})
