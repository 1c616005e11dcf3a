// Package monitoring serves a running test over HTTP, so that it can be
// paused, continued and inspected from a browser.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/rs232sim/monitoring/web"
	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
	"github.com/sarchlab/rs232sim/testbench"
)

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	lock        sync.Mutex
	engine      sim.Engine
	components  []sim.Component
	signals     []*signal.Signal
	portNumber  int
	openBrowser bool

	pauseLock sync.Mutex
	paused    bool

	profileDuration time.Duration
	expectedTime    sim.VTimeInSec

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	testBar          *ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in a browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// WithExpectedTime sets the simulated time that the progress bar of a test
// counts up to.
func (m *Monitor) WithExpectedTime(t sim.VTimeInSec) *Monitor {
	m.expectedTime = t
	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.engine = e
}

// RegisterComponent register a component to be monitored.
func (m *Monitor) RegisterComponent(c sim.Component) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.components = append(m.components, c)
}

// RegisterSignals registers the signals of a bundle to be monitored.
func (m *Monitor) RegisterSignals(b *signal.Bundle) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.signals = append(m.signals, b.Signals()...)
}

// TestStarted replaces the monitored engine, components and signals with the
// ones of the new test.
func (m *Monitor) TestStarted(
	name string,
	engine sim.Engine,
	dut testbench.DUT,
) {
	m.lock.Lock()
	m.components = nil
	m.signals = nil
	m.lock.Unlock()

	m.pauseLock.Lock()
	m.paused = false
	m.pauseLock.Unlock()

	m.RegisterEngine(engine)
	m.RegisterSignals(dut.Pins)

	for _, c := range dut.Components {
		m.RegisterComponent(c)
	}

	total := uint64(float64(m.expectedTime) * 1e6)
	bar := m.CreateProgressBar(name, total)
	engine.AcceptHook(&progressHook{bar: bar})

	m.progressBarsLock.Lock()
	m.testBar = bar
	m.progressBarsLock.Unlock()
}

// TestFinished removes the progress bar of the test.
func (m *Monitor) TestFinished(_ testbench.Result) {
	m.progressBarsLock.Lock()
	bar := m.testBar
	m.testBar = nil
	m.progressBarsLock.Unlock()

	if bar != nil {
		m.CompleteProgressBar(bar)
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Handler returns the router that serves the monitor.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/signals", m.listSignals)
	r.HandleFunc("/api/signal/{name}", m.signalValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":" + strconv.Itoa(m.portNumber)

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	handler := m.Handler()
	go func() {
		err := http.Serve(listener, handler)
		dieOnErr(err)
	}()

	if m.openBrowser {
		err := browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return url
}

func (m *Monitor) currentEngine(w http.ResponseWriter) sim.Engine {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.engine == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, err := w.Write([]byte("No simulation is running"))
		dieOnErr(err)
	}

	return m.engine
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	engine := m.currentEngine(w)
	if engine == nil {
		return
	}

	m.pauseLock.Lock()
	engine.Pause()
	m.paused = true
	m.pauseLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	engine := m.currentEngine(w)
	if engine == nil {
		return
	}

	m.pauseLock.Lock()
	engine.Continue()
	m.paused = false
	m.pauseLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	engine := m.currentEngine(w)
	if engine == nil {
		return
	}

	fmt.Fprintf(w, "{\"now\":%.10f}", engine.CurrentTime())
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	defer m.lock.Unlock()

	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	var err error
	m.holdEngine(func() { err = serializer.Serialize(w) })
	dieOnErr(err)
}

// holdEngine runs fn between two events, so that fn sees the components in
// a consistent state. An engine paused through the API stays paused.
func (m *Monitor) holdEngine(fn func()) {
	m.lock.Lock()
	engine := m.engine
	m.lock.Unlock()

	m.pauseLock.Lock()
	defer m.pauseLock.Unlock()

	if engine != nil && !m.paused {
		engine.Pause()
		defer engine.Continue()
	}

	fn()
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	var entryErr error

	m.holdEngine(func() {
		entryErr = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
		if entryErr == nil {
			err = serializer.Serialize(w)
		}
	})

	if entryErr != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", entryErr)

		return
	}

	dieOnErr(err)
}

type signalRsp struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
	Value uint64 `json:"value"`
}

func newSignalRsp(s *signal.Signal) signalRsp {
	return signalRsp{
		Name:  s.Name(),
		Width: s.Width(),
		Value: s.Value(),
	}
}

func (m *Monitor) listSignals(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	defer m.lock.Unlock()

	rsp := make([]signalRsp, 0, len(m.signals))
	for _, s := range m.signals {
		rsp = append(rsp, newSignalRsp(s))
	}

	writeJSON(w, rsp)
}

func (m *Monitor) signalValue(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	m.lock.Lock()
	defer m.lock.Unlock()

	for _, s := range m.signals {
		if s.Name() == name {
			writeJSON(w, newSignalRsp(s))
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Signal not found"))
	dieOnErr(err)
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) sim.Component {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	snapshots := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		snapshots = append(snapshots, b.snapshot())
	}

	writeJSON(w, snapshots)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
