// Package bootstrap takes statemod from a raw command line to a dispatched
// run mode.
//
// Execution flow:
//  1. Capture the process working directory
//  2. Discovery scan: help, version and the response file
//  3. Validate the response file and move the working directory next to it
//  4. Read statemod.yaml and open <response>.log
//  5. Full scan: the run mode, now recorded in the log
//  6. Load the dataset and run the mode
//
// Every exit, early or late, goes through quit, which prints "STOP <n>" and
// closes the log.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/jprybylski/statemod/internal/cli"
	"github.com/jprybylski/statemod/internal/config"
	"github.com/jprybylski/statemod/internal/core"
	"github.com/jprybylski/statemod/internal/dataset"
	"github.com/jprybylski/statemod/internal/logging"
	"github.com/jprybylski/statemod/internal/pathutil"
	"github.com/jprybylski/statemod/internal/registry"
	"github.com/jprybylski/statemod/internal/runmode"
)

// Stage is how far startup has progressed.
type Stage int

const (
	Start Stage = iota
	WorkingDirCaptured
	PathDiscovered
	PathValidated
	LoggingReady
	ModeValidated
	DatasetLoaded
	Dispatched
	Terminated
)

var stageNames = [...]string{
	"Start",
	"WorkingDirCaptured",
	"PathDiscovered",
	"PathValidated",
	"LoggingReady",
	"ModeValidated",
	"DatasetLoaded",
	"Dispatched",
	"Terminated",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// State is the merged outcome of both command line scans.
type State struct {
	Stage      Stage
	WorkingDir string
	Path       pathutil.ResolvedPath
	PathGiven  bool
	Mode       runmode.Mode
	Status     int
}

// Runner is the dispatch surface of core.Runner.
type Runner interface {
	RunBaseflows(ctx context.Context) error
	RunCheck(ctx context.Context) error
	RunSimulate(ctx context.Context) error
}

// Bootstrap runs one statemod invocation. The function fields default to the
// real implementations and are replaced in tests.
type Bootstrap struct {
	Stdout io.Writer
	Stderr io.Writer // console log destination

	Getwd       func() (string, error)
	LoadDataset func(path string) (*dataset.DataSet, error)
	NewRunner   func(env registry.Env) Runner

	state State
	cfg   *config.Config
	ds    *dataset.DataSet
	sink  *logging.Sink
}

// New returns a Bootstrap wired to the real working directory, dataset
// loader and runner.
func New(stdout, stderr io.Writer) *Bootstrap {
	return &Bootstrap{
		Stdout:      stdout,
		Stderr:      stderr,
		Getwd:       os.Getwd,
		LoadDataset: dataset.Load,
		NewRunner:   func(env registry.Env) Runner { return core.NewRunner(env) },
		sink:        logging.Nop(),
	}
}

// State returns a copy of the state as of the last stage reached.
func (b *Bootstrap) State() State { return b.state }

func (b *Bootstrap) log() *zerolog.Logger { return &b.sink.Logger }

// Run executes args (without the program name) and returns the exit status.
func (b *Bootstrap) Run(ctx context.Context, args []string) (status int) {
	if b.sink == nil {
		b.sink = logging.Nop()
	}
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(b.Stdout, "Error starting StateMod: %v\n", r)
			b.log().Error().Interface("panic", r).Str("stage", b.state.Stage.String()).Msg("Startup failed.")
			status = b.quit(cli.ExitFailure)
		}
	}()

	if done, code := b.captureWorkingDir(); done {
		return code
	}
	if done, code := b.discover(args); done {
		return code
	}
	if done, code := b.validatePath(); done {
		return code
	}
	b.openLog()
	if done, code := b.selectMode(args); done {
		return code
	}
	b.loadDataset()
	b.dispatch(ctx)
	return b.quit(cli.ExitSuccess)
}

func (b *Bootstrap) captureWorkingDir() (bool, int) {
	wd, err := b.Getwd()
	if err != nil {
		fmt.Fprintf(b.Stdout, "Unable to determine the working directory: %v\n", err)
		return true, b.quit(cli.ExitFailure)
	}
	b.state.WorkingDir = wd
	b.echo(fmt.Sprintf("Setting working directory to user directory %q.", wd))
	b.state.Stage = WorkingDirCaptured
	return false, 0
}

func (b *Bootstrap) discover(args []string) (bool, int) {
	res, err := cli.Parse(args, cli.Discovery, b.state.WorkingDir)
	for _, p := range res.Paths {
		b.echo("Response file (from command line): " + p.Fragment)
		b.echo("Response file (absolute path): " + p.Candidate)
		if p.Appended {
			b.echo("Response file (with " + cli.ResponseExt + " appended): " + p.AbsolutePath)
		}
	}
	if done, code := b.terminal(res, err); done {
		return true, code
	}
	b.state.Path, b.state.PathGiven = res.Path()
	b.state.Mode = res.Mode()
	b.state.Stage = PathDiscovered
	return false, 0
}

// terminal handles help, version and usage errors, which end the run in
// either scan.
func (b *Bootstrap) terminal(res cli.Result, err error) (bool, int) {
	var uerr *cli.UsageError
	switch {
	case errors.As(err, &uerr):
		b.echo(uerr.Message)
		cli.PrintUsage(b.Stdout)
		return true, b.quit(cli.ExitFailure)
	case err != nil:
		b.echo(err.Error())
		return true, b.quit(cli.ExitFailure)
	case res.Action == cli.ActionHelp:
		cli.PrintUsage(b.Stdout)
		return true, b.quit(cli.ExitSuccess)
	case res.Action == cli.ActionVersion:
		cli.PrintVersion(b.Stdout)
		return true, b.quit(cli.ExitSuccess)
	}
	return false, 0
}

func (b *Bootstrap) validatePath() (bool, int) {
	p := b.state.Path
	switch {
	case !b.state.PathGiven:
		fmt.Fprintln(b.Stdout)
		b.echo("No response file was specified.")
		cli.PrintUsage(b.Stdout)
		return true, b.quit(cli.ExitFailure)
	case !p.Exists:
		fmt.Fprintln(b.Stdout)
		b.echo(fmt.Sprintf("Response file %q does not exist.", p.Candidate))
		cli.PrintUsage(b.Stdout)
		return true, b.quit(cli.ExitFailure)
	}
	b.state.WorkingDir = p.Dir()
	b.echo(fmt.Sprintf("Setting working directory to response file directory %q.", b.state.WorkingDir))
	b.state.Stage = PathValidated
	return false, 0
}

// openLog reads the settings file and opens <response>.log. Neither failure
// stops the run.
func (b *Bootstrap) openLog() {
	cfg, cfgErr := config.Load(b.state.WorkingDir)
	b.cfg = cfg
	if cfgErr != nil {
		fmt.Fprintf(b.Stdout, "Unable to read settings file, using defaults: %v\n", cfgErr)
	}

	logPath := b.state.Path.AbsolutePath + ".log"
	sink, err := logging.Open(logPath, b.Stderr, cfg.LogOptions())
	b.sink = sink
	if err != nil {
		fmt.Fprintf(b.Stdout, "\nUnable to open log file %q\n\n", logPath)
		b.log().Warn().Err(err).Str("log", logPath).Msg("Logging to console only.")
	}
	if cfgErr != nil {
		b.log().Warn().Err(cfgErr).Msg("Settings file ignored.")
	}
	b.log().Info().
		Str("program", cli.ProgramName).
		Str("version", cli.Version).
		Str("response", b.state.Path.AbsolutePath).
		Str("dir", b.state.WorkingDir).
		Msg("Log opened.")
	b.state.Stage = LoggingReady
}

func (b *Bootstrap) selectMode(args []string) (bool, int) {
	res, err := cli.Parse(args, cli.Full, b.state.WorkingDir)
	if done, code := b.terminal(res, err); done {
		return true, code
	}
	b.state.Mode = res.Mode()
	if !b.state.Mode.Valid() {
		fmt.Fprintln(b.Stdout)
		b.echo("No run mode was specified.")
		cli.PrintUsage(b.Stdout)
		return true, b.quit(cli.ExitFailure)
	}
	b.echo("Run mode is " + b.state.Mode.String())
	b.state.Stage = ModeValidated
	return false, 0
}

func (b *Bootstrap) loadDataset() {
	path := b.state.Path.AbsolutePath
	b.recoverable("Error reading response file. See the log file.", func() error {
		b.logMemory("Memory before reading dataset.")
		ds, err := b.LoadDataset(path)
		if err != nil {
			return err
		}
		b.ds = ds
		b.logMemory("Memory after reading dataset.")
		b.log().Info().Int("components", len(ds.Components)).Msg("Dataset loaded.")
		return nil
	})
	b.state.Stage = DatasetLoaded
}

func (b *Bootstrap) dispatch(ctx context.Context) {
	env := registry.Env{
		ResponsePath: b.state.Path.AbsolutePath,
		WorkingDir:   b.state.WorkingDir,
		Dataset:      b.ds,
		Config:       b.cfg,
		Out:          b.Stdout,
		Log:          b.sink.Logger,
	}
	b.recoverable("Error running StateMod. See the log file.", func() error {
		r := b.NewRunner(env)
		switch b.state.Mode {
		case runmode.Baseflows:
			return r.RunBaseflows(ctx)
		case runmode.Check:
			return r.RunCheck(ctx)
		case runmode.Simulate:
			return r.RunSimulate(ctx)
		}
		return fmt.Errorf("unsupported run mode %v", b.state.Mode)
	})
	b.state.Stage = Dispatched
}

// recoverable runs fn and turns an error or panic into a warning.
func (b *Bootstrap) recoverable(warning string, fn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}()
	if err != nil {
		fmt.Fprintln(b.Stdout, warning)
		b.log().Warn().Err(err).Str("stage", b.state.Stage.String()).Msg(warning)
	}
}

func (b *Bootstrap) logMemory(msg string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	b.log().Info().
		Uint64("sys", m.Sys).
		Uint64("heap_alloc", m.HeapAlloc).
		Uint64("heap_idle", m.HeapIdle).
		Msg(msg)
}

// echo writes msg to stdout and the log.
func (b *Bootstrap) echo(msg string) {
	fmt.Fprintln(b.Stdout, msg)
	b.log().Info().Msg(msg)
}

// quit is the single exit path.
func (b *Bootstrap) quit(status int) int {
	b.log().Info().Msgf("Exiting with status %d.", status)
	fmt.Fprintf(b.Stdout, "STOP %d\n", status)
	if err := b.sink.Close(); err != nil {
		fmt.Fprintf(b.Stderr, "close log: %v\n", err)
	}
	b.state.Status = status
	b.state.Stage = Terminated
	return status
}
