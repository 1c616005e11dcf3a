package sim

// TickEvent asks a component to update its state for one cycle.
type TickEvent struct {
	EventBase

	// Cycle counts the ticks of the scheduler since time 0.
	Cycle uint64
}

// MakeTickEvent creates a new TickEvent
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	evt := TickEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time

	return evt
}

// A Ticker is an object that updates states with ticks.
type Ticker interface {
	Tick() bool
}

// TickScheduler schedules tick events on the cycle boundaries of a
// frequency. Tick times are computed from integer cycle numbers, so that a
// long run of ticks does not accumulate rounding errors.
type TickScheduler struct {
	handler   Handler
	Freq      Freq
	Engine    Engine
	secondary bool

	scheduled bool
	nextCycle uint64
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	return &TickScheduler{
		handler: handler,
		Engine:  engine,
		Freq:    freq,
	}
}

// TickNow schedules a tick at the current time, or at the next cycle
// boundary if the current time is between two.
func (t *TickScheduler) TickNow() {
	t.tickAt(t.Freq.Cycle(t.Freq.ThisTick(t.CurrentTime())))
}

// TickLater schedules a tick at the cycle after the current time.
func (t *TickScheduler) TickLater() {
	t.tickAt(t.Freq.Cycle(t.Freq.NextTick(t.CurrentTime())))
}

// NextCycle returns the cycle of the latest scheduled tick and whether any
// tick has been scheduled.
func (t *TickScheduler) NextCycle() (uint64, bool) {
	return t.nextCycle, t.scheduled
}

func (t *TickScheduler) tickAt(cycle uint64) {
	if t.scheduled && t.nextCycle >= cycle {
		return
	}

	t.scheduled = true
	t.nextCycle = cycle

	tick := MakeTickEvent(t.handler, t.Freq.CycleTime(cycle))
	tick.Cycle = cycle
	tick.secondary = t.secondary

	t.Engine.Schedule(tick)
}

// CurrentTime returns the current time of the engine.
func (t *TickScheduler) CurrentTime() VTimeInSec {
	return t.Engine.CurrentTime()
}

// TickingComponent is a component that updates its state cycle by cycle.
// It keeps ticking as long as its Ticker makes progress.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// Handle triggers the tick function of the TickingComponent
func (c *TickingComponent) Handle(_ Event) error {
	madeProgress := c.ticker.Tick()
	if madeProgress {
		c.TickLater()
	}

	return nil
}

// NewTickingComponent creates a new ticking component
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}

// NewSecondaryTickingComponent creates a ticking component whose ticks run
// after the primary events of the same time.
func NewSecondaryTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := NewTickingComponent(name, engine, freq, ticker)
	tc.secondary = true

	return tc
}
