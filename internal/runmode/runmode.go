// Package runmode defines the closed set of top-level operations statemod can
// perform on a loaded dataset.
package runmode

import "strings"

// Mode is a run mode. The zero value None means no mode was selected.
type Mode int

const (
	None Mode = iota
	Baseflows
	Check
	Simulate
)

type info struct {
	display    string
	lowercase  string
	definition string
}

var modes = map[Mode]info{
	Baseflows: {"Baseflow", "baseflow", "Run the baseflow mode with standard options."},
	Check:     {"Check", "check", "Check the dataset input files."},
	Simulate:  {"Simulate", "simulate", "Run the simulation with standard options."},
}

// All returns the selectable modes in a stable order.
func All() []Mode {
	return []Mode{Baseflows, Check, Simulate}
}

// String returns the display label, or "" for None.
func (m Mode) String() string { return modes[m].display }

// LowercaseName returns the stable lowercase identifier used in settings
// files and the registry.
func (m Mode) LowercaseName() string { return modes[m].lowercase }

// Definition returns a one-line description suitable for usage text.
func (m Mode) Definition() string { return modes[m].definition }

// Valid reports whether m is one of the selectable modes.
func (m Mode) Valid() bool {
	_, ok := modes[m]
	return ok
}

// Parse looks a mode up by display label or lowercase identifier, ignoring
// case. The "comma ok" result is false when nothing matches.
func Parse(name string) (Mode, bool) {
	name = strings.TrimSpace(name)
	for _, m := range All() {
		if strings.EqualFold(name, m.String()) || strings.EqualFold(name, m.LowercaseName()) {
			return m, true
		}
	}
	return None, false
}
