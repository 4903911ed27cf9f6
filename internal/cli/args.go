// Package cli scans the statemod command line.
//
// The same token list is scanned twice. The Discovery pass runs before
// logging exists: it finds the response file and handles help and version.
// The Full pass runs once the log is open so every flag effect is recorded.
// Parse is a pure function of its inputs; the caller merges each Result into
// its own state.
package cli

import (
	"fmt"
	"strings"

	"github.com/jprybylski/statemod/internal/pathutil"
	"github.com/jprybylski/statemod/internal/runmode"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ResponseExt is appended to a response fragment that does not resolve as given.
const ResponseExt = ".rsp"

const flagMarker = "-"

// Phase selects which actions a scan may take.
type Phase int

const (
	Discovery Phase = iota
	Full
)

func (p Phase) String() string {
	if p == Discovery {
		return "discovery"
	}
	return "full"
}

// Action is a terminal request found on the command line.
type Action int

const (
	ActionNone Action = iota
	ActionHelp
	ActionVersion
)

type flagSpec struct {
	short  string
	long   string
	mode   runmode.Mode
	action Action
	strict bool
}

var flags = []flagSpec{
	{short: "-baseflows", long: "--baseflows", mode: runmode.Baseflows},
	{short: "-check", long: "--check", mode: runmode.Check},
	{short: "-sim", long: "--sim", mode: runmode.Simulate},
	{short: "-h", long: "--help", action: ActionHelp},
	{short: "-v", long: "--version", action: ActionVersion},
	{short: "-strict", long: "--strict", strict: true},
}

func lookupFlag(tok string) (flagSpec, bool) {
	for _, f := range flags {
		if strings.EqualFold(tok, f.short) || strings.EqualFold(tok, f.long) {
			return f, true
		}
	}
	return flagSpec{}, false
}

// Result is what a single pass found.
type Result struct {
	Phase  Phase
	Action Action
	Modes  []runmode.Mode          // run-mode flags in order of appearance
	Paths  []pathutil.ResolvedPath // Discovery only, in order of appearance
	Strict bool
}

// Mode returns the last run mode given, or runmode.None.
func (r Result) Mode() runmode.Mode {
	if len(r.Modes) == 0 {
		return runmode.None
	}
	return r.Modes[len(r.Modes)-1]
}

// Path returns the last response fragment given.
func (r Result) Path() (pathutil.ResolvedPath, bool) {
	if len(r.Paths) == 0 {
		return pathutil.ResolvedPath{}, false
	}
	return r.Paths[len(r.Paths)-1], true
}

// UsageError is a command line the program cannot act on. It always maps to
// ExitFailure and is reported together with the usage text.
type UsageError struct {
	Token   string
	Message string
}

func (e *UsageError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func unrecognized(tok string) error {
	return &UsageError{Token: tok, Message: fmt.Sprintf("Unrecognized option %q", tok)}
}

// Parse scans tokens left to right. The first help, version or unrecognized
// flag ends the scan. Repeated run-mode flags and repeated response fragments
// are last-one-wins unless -strict is present anywhere on the line.
func Parse(tokens []string, phase Phase, workingDir string) (Result, error) {
	res := Result{Phase: phase}
	for _, tok := range tokens {
		if !strings.HasPrefix(tok, flagMarker) {
			if phase == Discovery {
				res.Paths = append(res.Paths, pathutil.Resolve(tok, workingDir, ResponseExt))
			}
			continue
		}
		f, ok := lookupFlag(tok)
		if !ok {
			return res, unrecognized(tok)
		}
		switch {
		case f.action != ActionNone:
			res.Action = f.action
			return res, nil
		case f.mode != runmode.None:
			res.Modes = append(res.Modes, f.mode)
		case f.strict:
			res.Strict = true
		}
	}
	if res.Strict {
		if err := res.conflicts(); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r Result) conflicts() error {
	if len(r.Paths) > 1 {
		frags := make([]string, len(r.Paths))
		for i, p := range r.Paths {
			frags[i] = p.Fragment
		}
		return &UsageError{Message: fmt.Sprintf("More than one response file given: %s", strings.Join(frags, ", "))}
	}
	for _, m := range r.Modes {
		if m != r.Modes[0] {
			return &UsageError{Message: fmt.Sprintf("Conflicting run modes: %s and %s", r.Modes[0], m)}
		}
	}
	return nil
}
