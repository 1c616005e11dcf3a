package datarecording

import (
	"context"
	"fmt"
	"os"
)

// A Recording reads back the tables written by a TestRecorder.
type Recording struct {
	reader DataReader
}

// OpenRecording opens a recording file written by a TestRecorder.
func OpenRecording(path string) (*Recording, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}

	return NewRecording(NewReader(path)), nil
}

// NewRecording maps the tables of a TestRecorder on a reader.
func NewRecording(reader DataReader) *Recording {
	reader.MapTable(TestResultTable, TestResultEntry{})
	reader.MapTable(SignalChangeTable, SignalChangeEntry{})
	reader.MapTable(DeviceEventTable, DeviceEventEntry{})

	return &Recording{reader: reader}
}

// Results returns the test results in the order the tests finished.
func (r *Recording) Results(ctx context.Context) ([]TestResultEntry, error) {
	return queryAll[TestResultEntry](ctx, r.reader, TestResultTable,
		QueryParams{OrderBy: "rowid"})
}

// SignalTrace returns the value changes of one signal during one test.
func (r *Recording) SignalTrace(
	ctx context.Context,
	test, signalName string,
) ([]SignalChangeEntry, error) {
	return queryAll[SignalChangeEntry](ctx, r.reader, SignalChangeTable,
		QueryParams{
			Where:   "Test = ? AND Signal = ?",
			Args:    []any{test, signalName},
			OrderBy: "rowid",
		})
}

// DeviceEvents returns the device events of one test.
func (r *Recording) DeviceEvents(
	ctx context.Context,
	test string,
) ([]DeviceEventEntry, error) {
	return queryAll[DeviceEventEntry](ctx, r.reader, DeviceEventTable,
		QueryParams{
			Where:   "Test = ?",
			Args:    []any{test},
			OrderBy: "rowid",
		})
}

// Close closes the underlying reader.
func (r *Recording) Close() error {
	return r.reader.Close()
}

func queryAll[T any](
	ctx context.Context,
	reader DataReader,
	table string,
	params QueryParams,
) ([]T, error) {
	rows, _, err := reader.Query(ctx, table, params)
	if err != nil {
		return nil, err
	}

	entries := make([]T, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *row.(*T))
	}

	return entries, nil
}
