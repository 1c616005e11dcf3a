package signal

import (
	"fmt"
	"sort"
	"strings"
)

// A Bundle is a group of signals addressed by their short names, such as
// the pins of a device.
type Bundle struct {
	name    string
	signals map[string]*Signal
	order   []string
}

// NewBundle creates an empty bundle.
func NewBundle(name string) *Bundle {
	return &Bundle{
		name:    name,
		signals: make(map[string]*Signal),
	}
}

// Name returns the name of the bundle.
func (b *Bundle) Name() string {
	return b.name
}

// Add registers a signal under a short name.
func (b *Bundle) Add(short string, s *Signal) {
	if _, found := b.signals[short]; found {
		panic(fmt.Sprintf("signal %s already exists in %s", short, b.name))
	}

	b.signals[short] = s
	b.order = append(b.order, short)
}

// Signal returns the signal by its short name.
func (b *Bundle) Signal(short string) (*Signal, error) {
	s, found := b.signals[short]
	if !found {
		names := make([]string, 0, len(b.signals))
		for n := range b.signals {
			names = append(names, n)
		}
		sort.Strings(names)

		return nil, fmt.Errorf(
			"signal %s is not available on %s, available signals: %s",
			short, b.name, strings.Join(names, ", "))
	}

	return s, nil
}

// MustSignal is like Signal, but panics if the signal does not exist.
func (b *Bundle) MustSignal(short string) *Signal {
	s, err := b.Signal(short)
	if err != nil {
		panic(err)
	}

	return s
}

// Names returns the short names in the order the signals are added.
func (b *Bundle) Names() []string {
	names := make([]string, len(b.order))
	copy(names, b.order)

	return names
}

// Signals returns the signals in the order they are added.
func (b *Bundle) Signals() []*Signal {
	signals := make([]*Signal, 0, len(b.order))
	for _, n := range b.order {
		signals = append(signals, b.signals[n])
	}

	return signals
}
