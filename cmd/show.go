package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rs232sim/datarecording"
)

// ShowOptions holds the flags of the show command.
type ShowOptions struct {
	Test   string
	Signal string
	Events bool
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <recording.sqlite3>",
		Short: "Print the results, signal traces or device events of a recording.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRecording(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Test, "test", "",
		"test whose trace or events to print")
	cmd.Flags().StringVar(&opts.Signal, "signal", "",
		"signal to trace, such as dut.uio_out")
	cmd.Flags().BoolVar(&opts.Events, "events", false,
		"print the device events of the test")

	return cmd
}

func showRecording(cmd *cobra.Command, opts *ShowOptions, path string) error {
	if (opts.Signal != "" || opts.Events) && opts.Test == "" {
		return errors.New("--signal and --events require --test")
	}

	recording, err := datarecording.OpenRecording(path)
	if err != nil {
		return err
	}
	defer recording.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	switch {
	case opts.Signal != "":
		trace, err := recording.SignalTrace(ctx, opts.Test, opts.Signal)
		if err != nil {
			return err
		}

		for _, c := range trace {
			fmt.Fprintf(w, "%10.2fus %s %d\n", c.TimeUS, c.Signal, c.Value)
		}
	case opts.Events:
		events, err := recording.DeviceEvents(ctx, opts.Test)
		if err != nil {
			return err
		}

		for _, e := range events {
			fmt.Fprintf(w, "%10.2fus %s %s %s\n",
				e.TimeUS, e.Component, e.Event, e.Detail)
		}
	default:
		results, err := recording.Results(ctx)
		if err != nil {
			return err
		}

		for _, r := range results {
			status := "PASS"
			if !r.Passed {
				status = "FAIL"
			}

			fmt.Fprintf(w, "%s %s %.2fus", status, r.Test, r.SimTimeUS)
			if r.Error != "" {
				fmt.Fprintf(w, " %s", r.Error)
			}
			fmt.Fprintln(w)

			for _, u := range strings.Split(r.Unchecked, "; ") {
				if u != "" {
					fmt.Fprintf(w, "    unchecked: %s\n", u)
				}
			}
		}
	}

	return nil
}
