package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rs232sim/rs232test"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available tests.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			for _, t := range rs232test.NewSuite(cfg).Tests() {
				fmt.Fprintln(cmd.OutOrStdout(), t.Name)
			}

			return nil
		},
	}
}
