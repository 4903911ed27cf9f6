// Statemod is the command line entry point for running a StateMod dataset.
//
// It resolves the response file named on the command line, opens
// <response>.log next to it and runs one of the baseflow, check or simulate
// modes. All of the work happens in internal/bootstrap; main only supplies
// the process streams and turns the returned status into an exit code.
//
// Exit codes:
//
//	0 = Success, help or version
//	1 = Invalid usage or a startup failure
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/jprybylski/statemod/internal/bootstrap"
	// Side-effect imports: each runner registers its mode handler from
	// init().
	_ "github.com/jprybylski/statemod/internal/runners/baseflows"
	_ "github.com/jprybylski/statemod/internal/runners/check"
	_ "github.com/jprybylski/statemod/internal/runners/simulate"
)

func main() {
	// Interrupt cancels an external engine command; the bootstrap still
	// prints STOP and closes the log.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := bootstrap.New(os.Stdout, os.Stderr).Run(ctx, os.Args[1:])
	stop()
	os.Exit(status)
}
