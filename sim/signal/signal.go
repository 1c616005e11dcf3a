// Package signal provides named, fixed-width signals that connect a testbench
// to a simulated device.
package signal

import (
	"fmt"
	"sync"

	"github.com/sarchlab/rs232sim/sim"
)

// HookPosChange marks the change of the value of a signal. The Item of the
// hook context is the signal and the Detail is a Change.
var HookPosChange = &sim.HookPos{Name: "Signal Change"}

// A Change describes a value change of a signal.
type Change struct {
	Time     sim.VTimeInSec
	Old, New uint64
}

// A Watcher is notified after the value of a signal changes.
type Watcher func(s *Signal, from, to uint64)

type watcherEntry struct {
	id uint64
	fn Watcher
}

// A Signal is a named wire or bus with a width between 1 and 64 bits.
type Signal struct {
	sim.HookableBase

	lock       sync.Mutex
	name       string
	width      int
	value      uint64
	timeTeller sim.TimeTeller

	watchers      []watcherEntry
	nextWatcherID uint64
}

// New creates a signal. The time teller is used to timestamp the changes
// reported to hooks, and can be nil.
func New(name string, width int, timeTeller sim.TimeTeller) *Signal {
	if name == "" {
		panic("signal name must not be empty")
	}

	if width < 1 || width > 64 {
		panic(fmt.Sprintf("signal %s: width %d is not in [1, 64]",
			name, width))
	}

	return &Signal{
		name:       name,
		width:      width,
		timeTeller: timeTeller,
	}
}

// Name returns the name of the signal.
func (s *Signal) Name() string {
	return s.name
}

// Width returns the number of bits of the signal.
func (s *Signal) Width() int {
	return s.width
}

// Mask returns the mask that covers all the bits of the signal.
func (s *Signal) Mask() uint64 {
	if s.width == 64 {
		return ^uint64(0)
	}

	return (uint64(1) << s.width) - 1
}

// Value returns the current value.
func (s *Signal) Value() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.value
}

// Bit returns bit i of the current value.
func (s *Signal) Bit(i int) bool {
	s.bitMustBeInRange(i)

	return s.Value()&(uint64(1)<<i) != 0
}

// Set drives a new value onto the signal. Bits above the width are dropped.
// Hooks and watchers are only notified if the value changes. Watchers are
// called in the order they started watching.
func (s *Signal) Set(v uint64) {
	s.lock.Lock()
	v &= s.Mask()
	old := s.value
	if old == v {
		s.lock.Unlock()
		return
	}

	s.value = v
	watchers := make([]watcherEntry, len(s.watchers))
	copy(watchers, s.watchers)
	s.lock.Unlock()

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosChange,
		Item:   s,
		Detail: Change{Time: s.now(), Old: old, New: v},
	})

	for _, w := range watchers {
		if s.isWatching(w.id) {
			w.fn(s, old, v)
		}
	}
}

// SetBit sets or clears bit i, keeping all the other bits.
func (s *Signal) SetBit(i int, b bool) {
	s.bitMustBeInRange(i)

	v := s.Value()
	if b {
		v |= uint64(1) << i
	} else {
		v &^= uint64(1) << i
	}

	s.Set(v)
}

// Watch registers a watcher. The returned function stops the watching. A
// watcher registered while a change is being reported is not called for that
// change.
func (s *Signal) Watch(w Watcher) (cancel func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	id := s.nextWatcherID
	s.nextWatcherID++
	s.watchers = append(s.watchers, watcherEntry{id: id, fn: w})

	return func() { s.unwatch(id) }
}

// NumWatchers returns the number of active watchers.
func (s *Signal) NumWatchers() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.watchers)
}

func (s *Signal) unwatch(id uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i, w := range s.watchers {
		if w.id == id {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			return
		}
	}
}

func (s *Signal) isWatching(id uint64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, w := range s.watchers {
		if w.id == id {
			return true
		}
	}

	return false
}

func (s *Signal) now() sim.VTimeInSec {
	if s.timeTeller == nil {
		return 0
	}

	return s.timeTeller.CurrentTime()
}

func (s *Signal) bitMustBeInRange(i int) {
	if i < 0 || i >= s.width {
		panic(fmt.Sprintf("signal %s: bit %d out of range [0, %d)",
			s.name, i, s.width))
	}
}

// String prints the signal as name=value.
func (s *Signal) String() string {
	return fmt.Sprintf("%s=0x%x", s.name, s.Value())
}

// IsRising tells if bit 0 goes from low to high.
func IsRising(from, to uint64) bool {
	return from&1 == 0 && to&1 == 1
}

// IsFalling tells if bit 0 goes from high to low.
func IsFalling(from, to uint64) bool {
	return from&1 == 1 && to&1 == 0
}
