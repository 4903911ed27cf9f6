package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jprybylski/statemod/internal/config"
	"github.com/jprybylski/statemod/internal/registry"
	"github.com/jprybylski/statemod/internal/runmode"
	runrt "github.com/jprybylski/statemod/internal/runtime"
)

const controlComponent = "Control"

// RunEngine runs mode through the external command configured in
// statemod.yaml. Without one it prints announce and records a summary of
// the dataset; the numerical engine itself is not part of this program.
func RunEngine(ctx context.Context, env registry.Env, mode runmode.Mode, announce string) error {
	cfg := env.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if cmdline, ok := cfg.Command(mode); ok {
		return runCommand(ctx, env, mode, cmdline)
	}

	fmt.Fprintln(env.Out, announce)
	env.Log.Info().Str("mode", mode.LowercaseName()).Msg(announce)
	if env.Dataset == nil {
		env.Log.Warn().Msg("No dataset loaded.")
		return nil
	}
	ev := env.Log.Info().
		Str("response", env.Dataset.ResponsePath).
		Int("components", len(env.Dataset.Components)).
		Int("files", len(env.Dataset.Files()))
	// The control file names the simulation period; everything else is optional.
	if ctl, ok := env.Dataset.Lookup(controlComponent); ok && ctl.Used() {
		ev = ev.Str("control", ctl.File)
	} else {
		env.Log.Warn().Msg("Response file has no Control entry.")
	}
	ev.Msg("Dataset summary.")
	return nil
}

func runCommand(ctx context.Context, env registry.Env, mode runmode.Mode, cmdline string) error {
	cmd := substitute(cmdline, env, mode)
	fmt.Fprintf(env.Out, "Running %s mode: %s\n", mode.LowercaseName(), cmd)
	env.Log.Info().Str("command", cmd).Str("dir", env.WorkingDir).Msg("Running external engine.")

	vars := []string{
		"STATEMOD_RESPONSE=" + env.ResponsePath,
		"STATEMOD_MODE=" + mode.LowercaseName(),
	}
	out, err := runrt.RunShell(ctx, cmd, vars, env.WorkingDir)
	if out != "" {
		fmt.Fprint(env.Out, out)
		env.Log.Debug().Str("output", out).Msg("External engine output.")
	}
	if err != nil {
		return fmt.Errorf("%s mode: %w", mode.LowercaseName(), err)
	}
	return nil
}

func substitute(tmpl string, env registry.Env, mode runmode.Mode) string {
	r := strings.NewReplacer(
		"{{response}}", env.ResponsePath,
		"{{dir}}", env.WorkingDir,
		"{{mode}}", mode.LowercaseName(),
	)
	return r.Replace(tmpl)
}
