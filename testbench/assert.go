package testbench

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rs232sim/sim"
)

// ErrTimeLimit is reported when a test does not finish before its simulated
// time limit.
var ErrTimeLimit = errors.New("simulated time limit reached")

// ErrNoMoreEvents is reported when the main task is still waiting but the
// engine has nothing left to run.
var ErrNoMoreEvents = errors.New("no more events while the test is waiting")

// AssertionError is returned by a failed check.
type AssertionError struct {
	Msg  string
	Time sim.VTimeInSec
}

func (e *AssertionError) Error() string {
	return e.Msg
}

// Failf creates an AssertionError at the current time.
func (tb *TB) Failf(format string, args ...any) error {
	return &AssertionError{
		Msg:  fmt.Sprintf(format, args...),
		Time: tb.Now(),
	}
}

// AssertEqual returns an AssertionError that reads
// "<what> expected <want>, got <got>" if want and got differ.
func (tb *TB) AssertEqual(what string, want, got uint64) error {
	if want == got {
		return nil
	}

	return tb.Failf("%s expected %d, got %d", what, want, got)
}
