// Command flowcheck synthesises pedestrian trajectories, runs a flow
// measurement program on them and checks its output against exact
// reference values.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/flowcheck/internal/runner"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitMismatch = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, runner.ErrScenarioFailed), errors.Is(err, errTreesDiffer):
		fmt.Fprintln(os.Stderr, "flowcheck:", err)
		return exitMismatch
	default:
		fmt.Fprintln(os.Stderr, "flowcheck:", err)
		return exitError
	}
}
