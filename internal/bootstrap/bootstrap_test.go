package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jprybylski/statemod/internal/dataset"
	"github.com/jprybylski/statemod/internal/registry"
	"github.com/jprybylski/statemod/internal/runmode"
)

type fakeRunner struct {
	calls  []runmode.Mode
	env    registry.Env
	err    error
	panics bool
}

func (f *fakeRunner) do(m runmode.Mode) error {
	f.calls = append(f.calls, m)
	if f.panics {
		panic("engine exploded")
	}
	return f.err
}

func (f *fakeRunner) RunBaseflows(context.Context) error { return f.do(runmode.Baseflows) }
func (f *fakeRunner) RunCheck(context.Context) error     { return f.do(runmode.Check) }
func (f *fakeRunner) RunSimulate(context.Context) error  { return f.do(runmode.Simulate) }

type harness struct {
	dir    string
	out    bytes.Buffer
	errOut bytes.Buffer
	runner *fakeRunner
	b      *Bootstrap
}

func newHarness(t *testing.T, files ...string) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir(), runner: &fakeRunner{}}
	for _, f := range files {
		p := filepath.Join(h.dir, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("Control = x.ctl\n"), 0o644))
	}
	h.b = New(&h.out, &h.errOut)
	h.b.Getwd = func() (string, error) { return h.dir, nil }
	h.b.NewRunner = func(env registry.Env) Runner {
		h.runner.env = env
		return h.runner
	}
	return h
}

func (h *harness) run(args ...string) int {
	return h.b.Run(context.Background(), args)
}

func TestNoArguments(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 1, h.run())
	out := h.out.String()
	require.Contains(t, out, "No response file was specified.")
	require.Contains(t, out, "statemod [options] dataset.rsp")
	require.True(t, strings.HasSuffix(out, "STOP 1\n"), out)
	require.Empty(t, h.runner.calls)
	require.Equal(t, Terminated, h.b.State().Stage)
}

func TestExtensionFallbackAndSimulate(t *testing.T) {
	h := newHarness(t, "myDataset.rsp")

	require.Equal(t, 0, h.run("myDataset", "-sim"))
	rsp := filepath.Join(h.dir, "myDataset.rsp")
	out := h.out.String()
	require.Contains(t, out, "Response file (from command line): myDataset")
	require.Contains(t, out, "Response file (absolute path): "+filepath.Join(h.dir, "myDataset"))
	require.Contains(t, out, "Response file (with .rsp appended): "+rsp)
	require.Contains(t, out, "Run mode is Simulate")
	require.True(t, strings.HasSuffix(out, "STOP 0\n"), out)

	require.Equal(t, []runmode.Mode{runmode.Simulate}, h.runner.calls)
	require.Equal(t, rsp, h.runner.env.ResponsePath)
	require.NotNil(t, h.runner.env.Dataset)
	require.FileExists(t, rsp+".log")

	st := h.b.State()
	require.Equal(t, h.dir, st.WorkingDir)
	require.Equal(t, runmode.Simulate, st.Mode)
}

func TestLastModeWins(t *testing.T) {
	h := newHarness(t, "dataset.rsp")

	require.Equal(t, 0, h.run("-sim", "-check", "dataset.rsp"))
	require.Equal(t, []runmode.Mode{runmode.Check}, h.runner.calls)
	require.Contains(t, h.out.String(), "Run mode is Check")
}

func TestVersionSkipsEverythingElse(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("-v", "nothere", "-bogus"))
	out := h.out.String()
	require.Contains(t, out, "version:")
	require.NotContains(t, out, "Response file")
	require.True(t, strings.HasSuffix(out, "STOP 0\n"), out)
	require.Equal(t, Terminated, h.b.State().Stage)
	require.False(t, h.b.State().PathGiven)
}

func TestHelpAnywhere(t *testing.T) {
	for _, args := range [][]string{
		{"--HELP"},
		{"dataset.rsp", "-sim", "-h"},
	} {
		h := newHarness(t, "dataset.rsp")
		require.Equal(t, 0, h.run(args...), args)
		require.Contains(t, h.out.String(), "statemod [options] dataset.rsp")
		require.Empty(t, h.runner.calls)
		require.NoFileExists(t, filepath.Join(h.dir, "dataset.rsp.log"))
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unrecognized flag", []string{"dataset.rsp", "-sim", "-fast"}, `Unrecognized option "-fast"`},
		{"missing file", []string{"nothere", "-sim"}, `Response file "`},
		{"no run mode", []string{"dataset.rsp"}, "No run mode was specified."},
		{"strict paths", []string{"-strict", "dataset.rsp", "dataset.rsp", "-sim"}, "More than one response file given"},
		{"strict modes", []string{"--strict", "dataset.rsp", "-sim", "-check"}, "Conflicting run modes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "dataset.rsp")
			require.Equal(t, 1, h.run(tt.args...))
			out := h.out.String()
			require.Contains(t, out, tt.want)
			require.Contains(t, out, "statemod [options] dataset.rsp")
			require.True(t, strings.HasSuffix(out, "STOP 1\n"), out)
			require.Empty(t, h.runner.calls)
		})
	}
}

func TestMissingModeClosesLog(t *testing.T) {
	h := newHarness(t, "dataset.rsp")

	require.Equal(t, 1, h.run("dataset.rsp"))
	log, err := os.ReadFile(filepath.Join(h.dir, "dataset.rsp.log"))
	require.NoError(t, err)
	require.Contains(t, string(log), "No run mode was specified.")
	require.Contains(t, string(log), "Exiting with status 1.")
	require.Equal(t, Terminated, h.b.State().Stage)
}

func TestMissingFileNamesCandidate(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 1, h.run("nothere", "-sim"))
	require.Contains(t, h.out.String(), `Response file "`+filepath.Join(h.dir, "nothere")+`" does not exist.`)
}

func TestWorkingDirectoryFollowsResponseFile(t *testing.T) {
	h := newHarness(t, "sub/dataset.rsp")

	require.Equal(t, 0, h.run("sub/dataset", "-baseflows"))
	sub := filepath.Join(h.dir, "sub")
	require.Equal(t, sub, h.b.State().WorkingDir)
	require.Equal(t, sub, h.runner.env.WorkingDir)
	require.Equal(t, []runmode.Mode{runmode.Baseflows}, h.runner.calls)
}

func TestDatasetLoadFailureContinues(t *testing.T) {
	h := newHarness(t, "dataset.rsp")
	h.b.LoadDataset = func(string) (*dataset.DataSet, error) {
		return nil, errors.New("bad response file")
	}

	require.Equal(t, 0, h.run("dataset.rsp", "-check"))
	require.Contains(t, h.out.String(), "Error reading response file.")
	require.Nil(t, h.runner.env.Dataset)
	require.Equal(t, []runmode.Mode{runmode.Check}, h.runner.calls)

	log, err := os.ReadFile(filepath.Join(h.dir, "dataset.rsp.log"))
	require.NoError(t, err)
	require.Contains(t, string(log), "bad response file")
}

func TestDatasetLoadPanicContinues(t *testing.T) {
	h := newHarness(t, "dataset.rsp")
	h.b.LoadDataset = func(string) (*dataset.DataSet, error) { panic("corrupt") }

	require.Equal(t, 0, h.run("dataset.rsp", "-sim"))
	require.Equal(t, []runmode.Mode{runmode.Simulate}, h.runner.calls)
}

func TestRunnerFailureStillExitsZero(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		h := newHarness(t, "dataset.rsp")
		h.runner.err = errors.New("no convergence")
		require.Equal(t, 0, h.run("dataset.rsp", "-sim"))
		require.Contains(t, h.out.String(), "Error running StateMod.")
		require.Equal(t, Terminated, h.b.State().Stage)
	})
	t.Run("panic", func(t *testing.T) {
		h := newHarness(t, "dataset.rsp")
		h.runner.panics = true
		require.Equal(t, 0, h.run("dataset.rsp", "-sim"))
		require.True(t, strings.HasSuffix(h.out.String(), "STOP 0\n"))
	})
}

func TestGetwdFailure(t *testing.T) {
	h := newHarness(t)
	h.b.Getwd = func() (string, error) { return "", errors.New("gone") }

	require.Equal(t, 1, h.run("dataset.rsp", "-sim"))
	require.True(t, strings.HasSuffix(h.out.String(), "STOP 1\n"))
}

func TestLogFileCannotBeOpened(t *testing.T) {
	h := newHarness(t, "dataset.rsp")
	// A directory where the log file should go makes the open fail.
	require.NoError(t, os.Mkdir(filepath.Join(h.dir, "dataset.rsp.log"), 0o755))

	require.Equal(t, 0, h.run("dataset.rsp", "-sim"))
	require.Contains(t, h.out.String(), "Unable to open log file")
	require.Equal(t, []runmode.Mode{runmode.Simulate}, h.runner.calls)
}

func TestInvalidSettingsFileUsesDefaults(t *testing.T) {
	h := newHarness(t, "dataset.rsp")
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "statemod.yaml"), []byte("version: 7\n"), 0o644))

	require.Equal(t, 0, h.run("dataset.rsp", "-sim"))
	require.Contains(t, h.out.String(), "Unable to read settings file")
	require.NotNil(t, h.runner.env.Config)
	require.Equal(t, 1, h.runner.env.Config.Version)
}

func TestStageString(t *testing.T) {
	require.Equal(t, "LoggingReady", LoggingReady.String())
	require.Equal(t, "Stage(42)", Stage(42).String())
}
