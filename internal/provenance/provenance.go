// Package provenance reports where a dataset's files stand in version control.
package provenance

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// FileState is the working tree state of one file.
type FileState string

const (
	Clean     FileState = "clean"
	Modified  FileState = "modified"
	Untracked FileState = "untracked"
	Outside   FileState = "outside" // not below the work tree root
)

// Report describes the repository holding a dataset.
type Report struct {
	Root   string
	Head   string // commit hash, empty for a repository without commits
	Branch string // short branch name, empty when HEAD is detached
	Files  map[string]FileState
}

// Dirty returns the files that are not Clean, in the order given to Inspect.
func (r *Report) Dirty(files []string) []string {
	var out []string
	for _, f := range files {
		if st, ok := r.Files[f]; ok && st != Clean {
			out = append(out, f)
		}
	}
	return out
}

// Inspect opens the git work tree containing dir (searching parent
// directories) and classifies each of files. It returns (nil, nil) when dir
// is not under version control.
func Inspect(dir string, files []string) (*Report, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("git: open %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// bare repository: nothing to compare against
		if errors.Is(err, git.ErrIsBareRepository) {
			return nil, nil
		}
		return nil, err
	}

	rep := &Report{Root: wt.Filesystem.Root(), Files: map[string]FileState{}}
	head, err := repo.Head()
	switch {
	case err == nil:
		rep.Head = head.Hash().String()
		if head.Name().IsBranch() {
			rep.Branch = head.Name().Short()
		}
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// no commits yet
	default:
		return nil, fmt.Errorf("git: resolve HEAD: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("git: status: %w", err)
	}

	for _, f := range files {
		rel, err := filepath.Rel(rep.Root, f)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			rep.Files[f] = Outside
			continue
		}
		// Status only lists paths that differ from HEAD; absence means clean.
		fs, ok := status[filepath.ToSlash(rel)]
		switch {
		case !ok:
			rep.Files[f] = Clean
		case fs.Worktree == git.Untracked:
			rep.Files[f] = Untracked
		case fs.Worktree != git.Unmodified || fs.Staging != git.Unmodified:
			rep.Files[f] = Modified
		default:
			rep.Files[f] = Clean
		}
	}
	return rep, nil
}
