package cli

import (
	"fmt"
	"io"

	"github.com/jprybylski/statemod/internal/runmode"
)

// ProgramName and Version are printed by -v. Version can be overridden at
// build time with -ldflags "-X github.com/jprybylski/statemod/internal/cli.Version=...".
var (
	ProgramName = "StateMod (Go)"
	Version     = "0.1.0"
)

// PrintUsage writes the short usage text. Run-mode lines come from the
// flag table and each mode's definition.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, `
statemod [options] dataset.rsp

dataset.rsp               "response file" that lists the dataset input files;
                          the .rsp extension may be omitted.
`)
	for _, f := range flags {
		if f.mode != runmode.None {
			usageLine(w, f, f.mode.Definition())
		}
	}
	for _, f := range flags {
		switch {
		case f.action == ActionHelp:
			usageLine(w, f, "Print program usage.")
		case f.action == ActionVersion:
			usageLine(w, f, "Print program version.")
		case f.strict:
			usageLine(w, f, "Reject repeated response files or conflicting run modes.")
		}
	}
	fmt.Fprintln(w)
}

func usageLine(w io.Writer, f flagSpec, text string) {
	fmt.Fprintf(w, "%-26s%s\n", f.short+", "+f.long, text)
}

// PrintVersion writes the name, version and license banner.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, `
%s version: %s

StateMod is a part of Colorado's Decision Support Systems (CDSS)
Copyright (C) 1997-2019 Colorado Department of Natural Resources

StateMod is free software:  you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

StateMod is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

You should have received a copy of the GNU General Public License
    along with StateMod.  If not, see <https://www.gnu.org/licenses/>.
`, ProgramName, Version)
}
