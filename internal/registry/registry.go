// Package registry holds the run mode handlers.
//
// Handlers register themselves from init() in their own packages; the
// statemod binary pulls them in with blank imports. Looking a handler up by
// mode keeps the dispatch code free of any knowledge of what a mode does.
package registry

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/jprybylski/statemod/internal/config"
	"github.com/jprybylski/statemod/internal/dataset"
	"github.com/jprybylski/statemod/internal/runmode"
)

// Env is everything a handler may use. Dataset is nil when the response file
// could not be loaded; handlers decide whether they can run without it.
type Env struct {
	ResponsePath string
	WorkingDir   string
	Dataset      *dataset.DataSet
	Config       *config.Config
	Out          io.Writer // operator-facing console output
	Log          zerolog.Logger
}

// Handler runs one mode.
type Handler interface {
	// Mode is the key the handler is registered under.
	Mode() runmode.Mode

	// Run performs the mode's work. Errors are reported, never fatal.
	Run(ctx context.Context, env Env) error
}

var handlers = map[runmode.Mode]Handler{}

// Register adds h, replacing any handler already registered for its mode.
func Register(h Handler) { handlers[h.Mode()] = h }

// Get returns the handler for mode.
func Get(mode runmode.Mode) (Handler, bool) {
	h, ok := handlers[mode]
	return h, ok
}
