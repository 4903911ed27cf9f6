// Package check registers the data check run mode.
package check

import (
	"context"
	"fmt"

	"github.com/jprybylski/statemod/internal/core"
	"github.com/jprybylski/statemod/internal/registry"
	"github.com/jprybylski/statemod/internal/runmode"
)

type handler struct{}

func New() *handler                   { return &handler{} }
func (h *handler) Mode() runmode.Mode { return runmode.Check }

func (h *handler) Run(ctx context.Context, env registry.Env) error {
	fmt.Fprintln(env.Out, "Running check mode.")
	return core.Check(ctx, env)
}

func init() { registry.Register(New()) }
