// Package core implements what statemod does once the command line has been
// resolved: running a mode against a loaded dataset.
//
// Key components:
//   - runner.go: the Runner dispatch contract
//   - check.go: dataset check against a lock file
//   - command.go: baseflow/simulate through an optional external engine
//   - lock.go, hash.go: lock file I/O and file digests
package core

import (
	"context"
	"fmt"

	"github.com/jprybylski/statemod/internal/registry"
	"github.com/jprybylski/statemod/internal/runmode"
)

// Runner runs the handlers registered for each mode against one Env.
type Runner struct {
	env registry.Env
}

// NewRunner binds env, including the already-loaded dataset, to a Runner.
func NewRunner(env registry.Env) *Runner {
	return &Runner{env: env}
}

func (r *Runner) RunBaseflows(ctx context.Context) error { return r.run(ctx, runmode.Baseflows) }

func (r *Runner) RunCheck(ctx context.Context) error { return r.run(ctx, runmode.Check) }

func (r *Runner) RunSimulate(ctx context.Context) error { return r.run(ctx, runmode.Simulate) }

func (r *Runner) run(ctx context.Context, mode runmode.Mode) error {
	h, ok := registry.Get(mode)
	if !ok {
		return fmt.Errorf("no handler registered for %s mode", mode.LowercaseName())
	}
	r.env.Log.Debug().Str("mode", mode.LowercaseName()).Msg("Running mode handler.")
	return h.Run(ctx, r.env)
}
