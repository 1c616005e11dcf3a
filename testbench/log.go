package testbench

import (
	"fmt"
)

// logWriter prefixes every line with the simulated time, in microseconds, and
// the name of the test.
type logWriter struct {
	sched *Scheduler
	env   *tbEnv
}

func (w *logWriter) Write(p []byte) (int, error) {
	now := float64(w.sched.engine.CurrentTime()) * 1e6

	_, err := fmt.Fprintf(w.env.out, "%10.2fus %s %s", now, w.env.name, p)
	if err != nil {
		return 0, err
	}

	return len(p), nil
}
