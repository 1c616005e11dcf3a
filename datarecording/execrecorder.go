package datarecording

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const execTableName = "exec_info"

type execInfo struct {
	Property string
	Value    string
}

// execRecorder records how the program is started and when it ends.
type execRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	recorder.CreateTable(execTableName, execInfo{})

	return &execRecorder{recorder: recorder}
}

func (e *execRecorder) Start() {
	e.add("Start Time", time.Now().Format(time.RFC3339Nano))
	e.add("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		cwd = filepath.Dir(os.Args[0])
	}
	e.add("Working Directory", cwd)
	e.add("Go Version", runtime.Version())

	if host, err := os.Hostname(); err == nil {
		e.add("Host", host)
	}
}

func (e *execRecorder) add(property, value string) {
	e.entries = append(e.entries, execInfo{property, value})
}

// End writes all the entries along with the end time.
func (e *execRecorder) End() {
	e.add("End Time", time.Now().Format(time.RFC3339Nano))

	for _, entry := range e.entries {
		e.recorder.InsertData(execTableName, entry)
	}

	e.entries = nil
}
