// Package baseflows registers the baseflow run mode.
package baseflows

import (
	"context"

	"github.com/jprybylski/statemod/internal/core"
	"github.com/jprybylski/statemod/internal/registry"
	"github.com/jprybylski/statemod/internal/runmode"
)

type handler struct{}

func New() *handler                   { return &handler{} }
func (h *handler) Mode() runmode.Mode { return runmode.Baseflows }

func (h *handler) Run(ctx context.Context, env registry.Env) error {
	return core.RunEngine(ctx, env, runmode.Baseflows, "Running baseflow mode.")
}

func init() { registry.Register(New()) }
