// Package pathutil turns user-supplied path fragments into absolute paths of
// existing files.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPath is the outcome of Resolve.
//
// AbsolutePath is empty unless Exists is true. Existence is only known as of
// the moment Resolve ran; callers that open the file later must handle it
// disappearing.
type ResolvedPath struct {
	Fragment     string // as given on the command line
	Candidate    string // first absolute candidate, before any extension fallback
	AbsolutePath string
	Exists       bool
	Appended     bool // the extension fallback produced AbsolutePath
}

// Dir returns the directory containing the resolved file, or "" when nothing
// was resolved.
func (r ResolvedPath) Dir() string {
	if !r.Exists {
		return ""
	}
	return filepath.Dir(r.AbsolutePath)
}

// Normalize rewrites both '/' and '\' to the host separator and cleans the
// result, so fragments written on one OS still resolve on another.
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	p = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return filepath.Separator
		}
		return r
	}, p)
	return filepath.Clean(p)
}

// Absolute joins a normalized fragment to workingDir unless it is already
// absolute.
func Absolute(fragment, workingDir string) string {
	p := Normalize(fragment)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workingDir, p)
}

// Resolve finds the file named by fragment. An exact match always wins;
// otherwise, when the candidate lacks requiredExt, the candidate with
// requiredExt appended is tried. At most two stat calls are made and nothing
// is ever created.
func Resolve(fragment, workingDir, requiredExt string) ResolvedPath {
	res := ResolvedPath{Fragment: fragment}
	if strings.TrimSpace(fragment) == "" {
		return res
	}
	res.Candidate = Absolute(fragment, workingDir)

	if isFile(res.Candidate) {
		res.AbsolutePath = res.Candidate
		res.Exists = true
		return res
	}
	if requiredExt != "" && !strings.HasSuffix(res.Candidate, requiredExt) {
		withExt := res.Candidate + requiredExt
		if isFile(withExt) {
			res.AbsolutePath = withExt
			res.Exists = true
			res.Appended = true
		}
	}
	return res
}

// isFile reports whether p exists and is not a directory.
func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
