package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions tells how to reach a ClickHouse server.
type ClickHouseOptions struct {
	Addr      string
	Database  string
	Username  string
	Password  string
	BatchSize int
}

// clickHouseWriter records into a ClickHouse server. Tables are MergeTree
// tables ordered by their first column.
type clickHouseWriter struct {
	conn      clickhouse.Conn
	batchSize int

	tables     map[string]*table
	order      []string
	entryCount int
	closed     bool

	execRecorder *execRecorder
}

// NewClickHouseRecorder connects to a ClickHouse server.
func NewClickHouseRecorder(opts ClickHouseOptions) (DataRecorder, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = 100000
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to ClickHouse at %s: %w",
			opts.Addr, err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("pinging ClickHouse at %s: %w", opts.Addr, err)
	}

	w := &clickHouseWriter{
		conn:      conn,
		batchSize: opts.BatchSize,
		tables:    make(map[string]*table),
	}

	w.execRecorder = newExecRecorder(w)
	w.execRecorder.Start()

	atexit.Register(func() { _ = w.Close() })

	return w, nil
}

func (w *clickHouseWriter) CreateTable(tableName string, sampleEntry any) {
	sql, err := clickHouseCreateTableSQL(tableName, sampleEntry)
	if err != nil {
		panic(err)
	}

	if err := w.conn.Exec(context.Background(), sql); err != nil {
		panic(fmt.Errorf("creating table %s: %w", tableName, err))
	}

	w.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	w.order = append(w.order, tableName)
}

func (w *clickHouseWriter) InsertData(tableName string, entry any) {
	table, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	table.entries = append(table.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.Flush()
	}
}

func (w *clickHouseWriter) ListTables() []string {
	tables := append([]string(nil), w.order...)
	sort.Strings(tables)

	return tables
}

func (w *clickHouseWriter) Flush() {
	if w.entryCount == 0 || w.closed {
		return
	}

	ctx := context.Background()

	for _, tableName := range w.order {
		table := w.tables[tableName]
		if len(table.entries) == 0 {
			continue
		}

		batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
		if err != nil {
			panic(fmt.Errorf("preparing batch for %s: %w", tableName, err))
		}

		for _, entry := range table.entries {
			if err := batch.Append(fieldValues(entry)...); err != nil {
				panic(fmt.Errorf("appending to %s: %w", tableName, err))
			}
		}

		if err := batch.Send(); err != nil {
			panic(fmt.Errorf("sending batch to %s: %w", tableName, err))
		}

		table.entries = nil
	}

	w.entryCount = 0
}

func (w *clickHouseWriter) Close() error {
	if w.closed {
		return nil
	}

	w.execRecorder.End()
	w.Flush()
	w.closed = true

	return w.conn.Close()
}

func clickHouseCreateTableSQL(tableName string, sampleEntry any) (string, error) {
	if err := checkStructFields(sampleEntry); err != nil {
		return "", fmt.Errorf("table %s: %w", tableName, err)
	}

	names := structs.Names(sampleEntry)
	t := reflect.TypeOf(sampleEntry)

	columns := make([]string, 0, len(names))
	for i, name := range names {
		columns = append(columns,
			fmt.Sprintf("%s %s", name, clickHouseType(t.Field(i).Type.Kind())))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\nORDER BY %s",
		tableName, strings.Join(columns, ",\n\t"), names[0]), nil
}

func clickHouseType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int8:
		return "Int8"
	case reflect.Int16:
		return "Int16"
	case reflect.Int32:
		return "Int32"
	case reflect.Int, reflect.Int64:
		return "Int64"
	case reflect.Uint8:
		return "UInt8"
	case reflect.Uint16:
		return "UInt16"
	case reflect.Uint32:
		return "UInt32"
	case reflect.Uint, reflect.Uint64:
		return "UInt64"
	case reflect.Float32:
		return "Float32"
	case reflect.Float64:
		return "Float64"
	default:
		return "String"
	}
}
