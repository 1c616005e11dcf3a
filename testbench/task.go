package testbench

import (
	"fmt"
	"runtime/debug"
)

type taskState int

const (
	taskCreated taskState = iota
	taskRunning
	taskWaiting
	taskDone
)

// A Task is a coroutine managed by a Scheduler.
type Task struct {
	name  string
	sched *Scheduler
	fn    func(tb *TB) error

	state     taskState
	cancelled bool
	err       error
	pending   Trigger

	resume chan error
	yield  chan struct{}

	doneWatchers []func()
}

func newTask(s *Scheduler, name string, fn func(tb *TB) error) *Task {
	return &Task{
		name:   name,
		sched:  s,
		fn:     fn,
		resume: make(chan error),
		yield:  make(chan struct{}),
	}
}

// Name returns the name of the task.
func (t *Task) Name() string {
	return t.name
}

// Done tells if the task has returned.
func (t *Task) Done() bool {
	return t.state == taskDone
}

// Err returns the error the task returned. It is nil before the task is done.
func (t *Task) Err() error {
	return t.err
}

func (t *Task) run(tb *TB) {
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v\n%s", t.name, r, debug.Stack())
		}

		t.err = err
		t.state = taskDone
		t.yield <- struct{}{}
	}()

	err = t.fn(tb)
}

// wait is called on the task goroutine. It hands control back to the
// scheduler and blocks until the scheduler resumes the task.
func (t *Task) wait() error {
	t.state = taskWaiting
	t.yield <- struct{}{}
	err := <-t.resume
	t.state = taskRunning

	return err
}

func (t *Task) onDone(fn func()) {
	t.doneWatchers = append(t.doneWatchers, fn)
}
