// Command rs232sim runs the RS-232 device tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/rs232sim/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.NewRootCommand().ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
		atexit.Exit(0)
	case errors.Is(err, cmd.ErrTestsFailed):
		atexit.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(2)
	}
}
