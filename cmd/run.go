package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rs232sim/datarecording"
	"github.com/sarchlab/rs232sim/rs232test"
	"github.com/sarchlab/rs232sim/simulation"
	"github.com/sarchlab/rs232sim/testbench"
)

// ErrTestsFailed is returned by the run command when a test fails.
var ErrTestsFailed = errors.New("tests failed")

// RunOptions holds the flags of the run command.
type RunOptions struct {
	*RootOptions

	TxByte      uint8
	RxByte      uint8
	BaudRate    float64
	TimeLimitMS float64

	Record        bool
	Output        string
	RecordSignals bool
	ClickHouse    string
	ClickHouseDB  string

	Monitor bool
	Port    int
	Browser bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [test ...]",
		Short: "Run the tests, or only the named ones.",
		Long: `Run the tests, or only the named ones, and print one line per ` +
			`test. The exit status is 1 if any test fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.Uint8Var(&opts.TxByte, "tx-byte", 0, "byte to transmit")
	f.Uint8Var(&opts.RxByte, "rx-byte", 0, "byte to receive")
	f.Float64Var(&opts.BaudRate, "baud-rate", 0, "baud rate of the device")
	f.Float64Var(&opts.TimeLimitMS, "time-limit-ms", 0,
		"simulated time limit of each test in milliseconds")
	f.BoolVar(&opts.Record, "record", false, "record results into SQLite")
	f.StringVarP(&opts.Output, "output", "o", "",
		"recording file name without the .sqlite3 suffix")
	f.BoolVar(&opts.RecordSignals, "record-signals", false,
		"also record every pin change and device event")
	f.StringVar(&opts.ClickHouse, "clickhouse", "",
		"record into the ClickHouse server at this address")
	f.StringVar(&opts.ClickHouseDB, "clickhouse-db", "default",
		"ClickHouse database")
	f.BoolVar(&opts.Monitor, "monitor", false, "start the monitoring server")
	f.IntVar(&opts.Port, "port", 0, "port of the monitoring server")
	f.BoolVar(&opts.Browser, "browser", false, "open the monitor in a browser")

	return cmd
}

func runTests(cmd *cobra.Command, opts *RunOptions, names []string) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	if err := applyFlags(cmd, opts, &cfg); err != nil {
		return err
	}

	s, err := buildSimulation(opts, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	defer func() {
		if err := s.Terminate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "closing recorder: %v\n", err)
		}
	}()

	results, err := s.Run(cmd.Context(), names...)
	if err != nil {
		return err
	}

	return report(cmd.OutOrStdout(), results)
}

// applyFlags overrides the config with the flags that are set.
func applyFlags(cmd *cobra.Command, opts *RunOptions, cfg *rs232test.Config) error {
	f := cmd.Flags()

	if f.Changed("tx-byte") {
		cfg.TxByte = opts.TxByte
	}

	if f.Changed("rx-byte") {
		cfg.RxByte = opts.RxByte
	}

	if f.Changed("baud-rate") {
		cfg.BaudRate = opts.BaudRate
	}

	if f.Changed("time-limit-ms") {
		cfg.TimeLimitMS = opts.TimeLimitMS
	}

	return cfg.Validate()
}

func buildSimulation(
	opts *RunOptions,
	cfg rs232test.Config,
	out io.Writer,
) (*simulation.Simulation, error) {
	b := simulation.MakeBuilder().WithLogOutput(out)

	if opts.Verbose {
		b = b.WithEventLogger(log.New(os.Stderr, "", 0))
	}

	switch {
	case opts.ClickHouse != "":
		b = b.WithClickHouse(datarecording.ClickHouseOptions{
			Addr:     opts.ClickHouse,
			Database: opts.ClickHouseDB,
		})
	case opts.Record || opts.Output != "":
		b = b.WithRecording(opts.Output)
	}

	if opts.RecordSignals {
		if opts.ClickHouse == "" && !opts.Record && opts.Output == "" {
			return nil, errors.New("--record-signals requires --record, " +
				"--output or --clickhouse")
		}

		b = b.WithSignalRecording()
	}

	if opts.Monitor {
		b = b.WithMonitoring().WithMonitorPort(opts.Port)
		if opts.Browser {
			b = b.WithBrowser()
		}
	} else if opts.Port != 0 || opts.Browser {
		return nil, errors.New("--port and --browser require --monitor")
	}

	return b.Build(rs232test.NewSuite(cfg))
}

func report(w io.Writer, results []testbench.Result) error {
	failed := 0

	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		}

		fmt.Fprintf(w, "--- %s: %s (%.2fus simulated, %s)\n",
			status, r.Name, float64(r.SimTime)*1e6, r.WallTime.Round(time.Microsecond))

		for _, u := range r.Unchecked {
			fmt.Fprintf(w, "    unchecked: %s\n", u)
		}

		if r.Err != nil {
			fmt.Fprintf(w, "    %v\n", r.Err)
		}
	}

	if failed > 0 {
		fmt.Fprintf(w, "FAIL: %d of %d tests failed\n", failed, len(results))
		return ErrTestsFailed
	}

	fmt.Fprintf(w, "PASS: %d tests\n", len(results))

	return nil
}
