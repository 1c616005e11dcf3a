// Package cmd provides the command-line interface of rs232sim.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// RootOptions holds the flags shared by all commands.
type RootOptions struct {
	Verbose bool
	EnvFile string
	Config  string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rs232sim",
		Short: "rs232sim runs the RS-232 device tests on a simulated device.",
		Long: `rs232sim runs the RS-232 device tests on a cycle-level model ` +
			`of the device. Settings come from defaults, a YAML config file, ` +
			`RS232SIM_* environment variables and flags, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(opts.EnvFile, cmd.Flags().Changed("env-file"))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"log every simulation event to stderr")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env",
		"file with RS232SIM_* variables")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "",
		"YAML config file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand())

	return cmd
}

// loadEnvFile loads the variables of an env file without overriding the
// environment. A missing default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("loading %s: %w", path, err)
}
