package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/rs232sim/dut/rs232"
	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
	"github.com/sarchlab/rs232sim/testbench"
)

func get(h http.Handler, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	return rec
}

var _ = Describe("Monitor", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		m        *Monitor
		comp     *rs232.Comp
		handler  http.Handler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		m = NewMonitor().WithExpectedTime(2e-3)
		m.profileDuration = 10 * time.Millisecond

		comp = rs232.MakeBuilder().Build("dut")
		handler = m.Handler()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should report when no simulation is running", func() {
		rec := get(handler, "/api/now")
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
	})

	Context("when a test is running", func() {
		BeforeEach(func() {
			engine.EXPECT().AcceptHook(gomock.Any())
			m.TestStarted("TestRS232", engine, testbench.DUT{
				Pins:       comp.Pins(),
				Components: []sim.Component{comp},
			})
		})

		It("should pause and continue the engine", func() {
			engine.EXPECT().Pause()
			Expect(get(handler, "/api/pause").Code).To(Equal(http.StatusOK))

			engine.EXPECT().Continue()
			Expect(get(handler, "/api/continue").Code).To(Equal(http.StatusOK))
		})

		It("should report the current time", func() {
			engine.EXPECT().CurrentTime().Return(sim.VTimeInSec(1.5e-3))

			rec := get(handler, "/api/now")

			Expect(rec.Body.String()).To(Equal(`{"now":0.0015000000}`))
		})

		It("should list the components", func() {
			rec := get(handler, "/api/list_components")
			Expect(rec.Body.String()).To(Equal(`["dut"]`))
		})

		It("should serialize a component", func() {
			gomock.InOrder(
				engine.EXPECT().Pause(),
				engine.EXPECT().Continue(),
			)

			rec := get(handler, "/api/component/dut")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.Len()).To(BeNumerically(">", 0))

			rec = get(handler, "/api/component/uart")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should read fields between two events", func() {
			gomock.InOrder(
				engine.EXPECT().Pause(),
				engine.EXPECT().Continue(),
			)

			rec := get(handler, "/api/field/"+url.PathEscape(
				`{"comp_name":"dut","field_name":"divisor"}`))

			Expect(rec.Code).To(BeElementOf(
				http.StatusOK, http.StatusBadRequest))
		})

		It("should not continue an engine paused through the API", func() {
			engine.EXPECT().Pause()
			Expect(get(handler, "/api/pause").Code).To(Equal(http.StatusOK))

			rec := get(handler, "/api/component/dut")

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should reject malformed field requests", func() {
			rec := get(handler, "/api/field/not-json")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should list the signals", func() {
			comp.Pins().MustSignal(rs232.PinUIIn).Set(0xA5)

			rec := get(handler, "/api/signals")

			signals := []signalRsp{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &signals)).To(Succeed())
			Expect(signals).To(HaveLen(8))
			Expect(signals).To(ContainElement(
				signalRsp{Name: "dut.ui_in", Width: 8, Value: 0xA5}))
		})

		It("should report a single signal", func() {
			comp.Pins().MustSignal(rs232.PinRstN).Set(1)

			rec := get(handler, "/api/signal/dut.rst_n")
			Expect(rec.Body.String()).To(
				Equal(`{"name":"dut.rst_n","width":1,"value":1}`))

			rec = get(handler, "/api/signal/dut.txd")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should track the progress of the test", func() {
			m.testBar.SetFinished(1100)

			rec := get(handler, "/api/progress")

			bars := []progressRsp{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
			Expect(bars).To(HaveLen(1))
			Expect(bars[0].Name).To(Equal("TestRS232"))
			Expect(bars[0].Total).To(Equal(uint64(2000)))
			Expect(bars[0].Finished).To(Equal(uint64(1100)))

			m.TestFinished(testbench.Result{Name: "TestRS232"})

			rec = get(handler, "/api/progress")
			Expect(rec.Body.String()).To(Equal(`[]`))
		})
	})

	It("should report resource usage", func() {
		rec := get(handler, "/api/resource")

		rsp := resourceRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a CPU profile", func() {
		rec := get(handler, "/api/profile")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should serve the web page", func() {
		rec := get(handler, "/")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})
})

var _ = Describe("Progress hook", func() {
	It("should follow the simulated time of a test", func() {
		m := NewMonitor().WithExpectedTime(2100e-6)

		var finishedAt uint64
		observer := &barWatcher{m: m, finished: &finishedAt}

		suite := testbench.MakeBuilder().
			WithSetup(func(engine sim.Engine) (testbench.DUT, error) {
				comp := rs232.MakeBuilder().WithEngine(engine).Build("dut")
				return testbench.DUT{
					Pins:       comp.Pins(),
					Components: []sim.Component{comp},
				}, nil
			}).
			WithObserver(observer).
			WithObserver(m).
			Build()

		result := suite.Run(context.Background(), testbench.Test{
			Name: "clocked",
			Func: func(tb *testbench.TB, dut *signal.Bundle) error {
				clk := dut.MustSignal(rs232.PinClk)
				tb.StartClock(clk, 100*sim.KHz)

				return tb.Await(testbench.ClockCycles(clk, 11))
			},
		})

		Expect(result.Passed).To(BeTrue())
		Expect(finishedAt).To(Equal(uint64(100)))
	})
})

// barWatcher reads the progress bar of the monitor before the monitor
// removes it.
type barWatcher struct {
	m        *Monitor
	finished *uint64
}

func (w *barWatcher) TestStarted(string, sim.Engine, testbench.DUT) {}

func (w *barWatcher) TestFinished(testbench.Result) {
	*w.finished = w.m.testBar.snapshot().Finished
}
