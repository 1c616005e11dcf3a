package cmd

import (
	"os"

	"github.com/sarchlab/rs232sim/rs232test"
)

// loadConfig layers the config file and the environment on top of the
// defaults.
func loadConfig(rootOpts *RootOptions) (rs232test.Config, error) {
	cfg := rs232test.DefaultConfig()

	if rootOpts.Config != "" {
		var err error

		cfg, err = rs232test.LoadConfig(rootOpts.Config)
		if err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}
