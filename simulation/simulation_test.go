package simulation

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rs232sim/datarecording"
	"github.com/sarchlab/rs232sim/rs232test"
)

var _ = Describe("Simulation", func() {
	var (
		suite      *rs232test.Suite
		simulation *Simulation
	)

	BeforeEach(func() {
		suite = rs232test.NewSuite(rs232test.DefaultConfig())
	})

	AfterEach(func() {
		if simulation != nil {
			Expect(simulation.Terminate()).To(Succeed())
			simulation = nil
		}
	})

	It("should run all tests in order", func() {
		var err error
		simulation, err = MakeBuilder().Build(suite)
		Expect(err).NotTo(HaveOccurred())
		Expect(simulation.ID()).NotTo(BeEmpty())
		Expect(simulation.GetDataRecorder()).To(BeNil())
		Expect(simulation.GetMonitor()).To(BeNil())

		results, err := simulation.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		Expect(results[0].Name).To(Equal("TestRS232"))
		for _, r := range results {
			Expect(r.Passed).To(BeTrue(), r.Name)
		}
	})

	It("should run the named tests only", func() {
		var err error
		simulation, err = MakeBuilder().Build(suite)
		Expect(err).NotTo(HaveOccurred())

		results, err := simulation.Run(context.Background(),
			"TestRS232Idle", "TestRS232")

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Name).To(Equal("TestRS232Idle"))
		Expect(results[1].Name).To(Equal("TestRS232"))
	})

	It("should reject an unknown test", func() {
		var err error
		simulation, err = MakeBuilder().Build(suite)
		Expect(err).NotTo(HaveOccurred())

		results, err := simulation.Run(context.Background(), "TestNothing")

		Expect(err).To(MatchError(ContainSubstring("TestNothing")))
		Expect(results).To(BeNil())
	})

	It("should not run anything once the context is done", func() {
		var err error
		simulation, err = MakeBuilder().Build(suite)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results, err := simulation.Run(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("should write test logs and engine events", func() {
		logs := new(bytes.Buffer)
		events := new(bytes.Buffer)

		var err error
		simulation, err = MakeBuilder().
			WithLogOutput(logs).
			WithEventLogger(log.New(events, "", 0)).
			Build(suite)
		Expect(err).NotTo(HaveOccurred())

		_, err = simulation.Run(context.Background(), "TestRS232")

		Expect(err).NotTo(HaveOccurred())
		Expect(logs.String()).To(ContainSubstring("TestRS232 Test completed"))
		Expect(events.Len()).To(BeNumerically(">", 0))
	})

	It("should record results into the output file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "recording")

		var err error
		simulation, err = MakeBuilder().
			WithRecording(path).
			WithSignalRecording().
			Build(suite)
		Expect(err).NotTo(HaveOccurred())
		Expect(simulation.GetDataRecorder()).NotTo(BeNil())

		_, err = simulation.Run(context.Background(), "TestRS232Idle")
		Expect(err).NotTo(HaveOccurred())

		Expect(simulation.GetDataRecorder().ListTables()).To(ContainElements(
			datarecording.TestResultTable,
			datarecording.SignalChangeTable,
		))

		Expect(simulation.Terminate()).To(Succeed())
		simulation = nil

		_, err = os.Stat(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should start a monitor", func() {
		var err error
		simulation, err = MakeBuilder().WithMonitoring().Build(suite)
		Expect(err).NotTo(HaveOccurred())

		Expect(simulation.GetMonitor()).NotTo(BeNil())
		Expect(simulation.MonitorURL()).To(HavePrefix("http://"))
	})

	It("should panic on monitor options without monitoring", func() {
		Expect(func() {
			_, _ = MakeBuilder().WithMonitorPort(8080).Build(suite)
		}).To(Panic())
	})

	It("should panic on signal recording without recording", func() {
		Expect(func() {
			_, _ = MakeBuilder().WithSignalRecording().Build(suite)
		}).To(Panic())
	})
})
