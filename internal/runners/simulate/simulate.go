// Package simulate registers the simulate run mode.
package simulate

import (
	"context"

	"github.com/jprybylski/statemod/internal/core"
	"github.com/jprybylski/statemod/internal/registry"
	"github.com/jprybylski/statemod/internal/runmode"
)

type handler struct{}

func New() *handler                   { return &handler{} }
func (h *handler) Mode() runmode.Mode { return runmode.Simulate }

func (h *handler) Run(ctx context.Context, env registry.Env) error {
	return core.RunEngine(ctx, env, runmode.Simulate, "Running simulation.")
}

func init() { registry.Register(New()) }
