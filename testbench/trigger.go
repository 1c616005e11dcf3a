package testbench

import (
	"fmt"
	"log"

	"github.com/sarchlab/rs232sim/sim"
	"github.com/sarchlab/rs232sim/sim/signal"
)

// A Trigger is something a task can wait for. Triggers can be reused after
// they fire.
type Trigger interface {
	fmt.Stringer

	// prime arms the trigger. fire must be called at most once.
	prime(s *Scheduler, fire func())

	// unprime disarms the trigger without firing it.
	unprime()
}

type edgeKind int

const (
	edgeRising edgeKind = iota
	edgeFalling
	edgeAny
)

func (k edgeKind) matches(from, to uint64) bool {
	switch k {
	case edgeRising:
		return signal.IsRising(from, to)
	case edgeFalling:
		return signal.IsFalling(from, to)
	default:
		return from != to
	}
}

func (k edgeKind) String() string {
	switch k {
	case edgeRising:
		return "RisingEdge"
	case edgeFalling:
		return "FallingEdge"
	default:
		return "Edge"
	}
}

type edgeTrigger struct {
	sig    *signal.Signal
	kind   edgeKind
	n      int
	count  int
	cancel func()
}

// RisingEdge fires when bit 0 of the signal goes from 0 to 1.
func RisingEdge(sig *signal.Signal) Trigger {
	return &edgeTrigger{sig: sig, kind: edgeRising, n: 1}
}

// FallingEdge fires when bit 0 of the signal goes from 1 to 0.
func FallingEdge(sig *signal.Signal) Trigger {
	return &edgeTrigger{sig: sig, kind: edgeFalling, n: 1}
}

// Edge fires on any change of the signal value.
func Edge(sig *signal.Signal) Trigger {
	return &edgeTrigger{sig: sig, kind: edgeAny, n: 1}
}

// ClockCycles fires after n rising edges of the signal. A count of zero
// fires at the current time.
func ClockCycles(sig *signal.Signal, n int) Trigger {
	if n < 0 {
		log.Panicf("ClockCycles(%s, %d): cycle count cannot be negative",
			sig.Name(), n)
	}

	return &edgeTrigger{sig: sig, kind: edgeRising, n: n}
}

func (t *edgeTrigger) prime(s *Scheduler, fire func()) {
	t.count = 0

	if t.n == 0 {
		fire()
		return
	}

	t.cancel = t.sig.Watch(func(_ *signal.Signal, from, to uint64) {
		if !t.kind.matches(from, to) {
			return
		}

		t.count++
		if t.count < t.n {
			return
		}

		t.unprime()
		fire()
	})
}

func (t *edgeTrigger) unprime() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *edgeTrigger) String() string {
	if t.n != 1 {
		return fmt.Sprintf("ClockCycles(%s, %d)", t.sig.Name(), t.n)
	}

	return fmt.Sprintf("%s(%s)", t.kind, t.sig.Name())
}

type timerEvent struct {
	*sim.EventBase
	trigger *timerTrigger
}

type timerTrigger struct {
	duration sim.VTimeInSec
	active   bool
	fire     func()
}

// Timer fires after the given amount of simulated time.
func Timer(d sim.VTimeInSec) Trigger {
	if d < 0 {
		log.Panicf("Timer(%g): duration cannot be negative", d)
	}

	return &timerTrigger{duration: d}
}

func (t *timerTrigger) prime(s *Scheduler, fire func()) {
	t.active = true
	t.fire = fire

	evt := &timerEvent{
		EventBase: sim.NewSecondaryEventBase(
			s.engine.CurrentTime()+t.duration, s),
		trigger: t,
	}
	s.engine.Schedule(evt)
}

func (t *timerTrigger) expire() {
	if !t.active {
		return
	}

	t.active = false
	t.fire()
}

func (t *timerTrigger) unprime() {
	t.active = false
}

func (t *timerTrigger) String() string {
	return fmt.Sprintf("Timer(%.2fus)", float64(t.duration)*1e6)
}

type joinTrigger struct {
	task   *Task
	active bool
}

// Join fires when the task returns.
func Join(task *Task) Trigger {
	return &joinTrigger{task: task}
}

func (t *joinTrigger) prime(s *Scheduler, fire func()) {
	if t.task.Done() {
		fire()
		return
	}

	t.active = true
	t.task.onDone(func() {
		if !t.active {
			return
		}

		t.active = false
		fire()
	})
}

func (t *joinTrigger) unprime() {
	t.active = false
}

func (t *joinTrigger) String() string {
	return fmt.Sprintf("Join(%s)", t.task.Name())
}
