// Package dataset reads a StateMod response file, the descriptor that names
// every input file of a dataset.
//
// Only the response file itself is parsed. The component files it lists are
// located but not read.
package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jprybylski/statemod/internal/pathutil"
)

// maxLineLen bounds a single response file line.
const maxLineLen = 1 << 20

// Component is one "Name = file" entry of the response file.
type Component struct {
	Name string // as written, e.g. "Control"
	File string // as written; empty when the component is not used
	Path string // absolute path, empty when File is empty
	Line int
}

// Used reports whether the entry names a file.
func (c Component) Used() bool { return c.File != "" }

// Exists reports whether the component file is present right now.
func (c Component) Exists() bool {
	if !c.Used() {
		return false
	}
	st, err := os.Stat(c.Path)
	return err == nil && !st.IsDir()
}

// DataSet is a loaded response file.
type DataSet struct {
	ResponsePath string
	Dir          string
	Components   []Component
}

// Lookup finds a component by name, ignoring case.
func (d *DataSet) Lookup(name string) (Component, bool) {
	for _, c := range d.Components {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Component{}, false
}

// Files returns the absolute paths of all used components in file order.
func (d *DataSet) Files() []string {
	var out []string
	for _, c := range d.Components {
		if c.Used() {
			out = append(out, c.Path)
		}
	}
	return out
}

// Load parses the response file at path. Relative component files resolve
// against the response file's directory, never the process directory.
func Load(path string) (*DataSet, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds := &DataSet{ResponsePath: abs, Dir: filepath.Dir(abs)}
	seen := map[string]int{}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, file, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected \"Name = file\", got %q", abs, n, line)
		}
		name = strings.TrimSpace(name)
		file = strings.TrimSpace(file)
		if name == "" {
			return nil, fmt.Errorf("%s:%d: missing component name", abs, n)
		}
		key := strings.ToLower(name)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("%s:%d: component %q already defined on line %d", abs, n, name, prev)
		}
		seen[key] = n

		c := Component{Name: name, File: file, Line: n}
		if file != "" {
			c.Path = pathutil.Absolute(file, ds.Dir)
		}
		ds.Components = append(ds.Components, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s:%d: %w", abs, n+1, err)
	}
	return ds, nil
}
