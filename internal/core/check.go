package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jprybylski/statemod/internal/config"
	"github.com/jprybylski/statemod/internal/dataset"
	"github.com/jprybylski/statemod/internal/provenance"
	"github.com/jprybylski/statemod/internal/registry"
)

// Check verifies every file named by the response file: missing files are
// reported, present files are hashed and compared with the lock written by
// the previous check, and the lock is rewritten. The returned error counts
// files that were missing or unreadable.
func Check(ctx context.Context, env registry.Env) error {
	ds := env.Dataset
	if ds == nil {
		return errors.New("check: no dataset loaded")
	}
	cfg := env.Config
	if cfg == nil {
		cfg = config.Default()
	}
	algo := cfg.Check.Algo
	log := env.Log

	lockPath := ds.ResponsePath + LockSuffix
	lk, err := readLock(lockPath)
	if err != nil {
		log.Warn().Err(err).Str("lock", lockPath).Msg("Unable to read lock file, starting a new one.")
		lk = &Lock{Items: map[string]*LockItem{}}
	}
	if lk.Algo != "" && lk.Algo != algo {
		log.Warn().Str("was", lk.Algo).Str("now", algo).Msg("Hash algorithm changed, previous digests ignored.")
		lk.Items = map[string]*LockItem{}
	}

	now := time.Now().UTC()
	var checked, missing, unreadable, changed int
	names := map[string]bool{}

	for _, c := range ds.Components {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.Used() {
			log.Debug().Str("component", c.Name).Msg("Component not used.")
			continue
		}
		names[c.Name] = true
		checked++

		if !c.Exists() {
			fmt.Fprintf(env.Out, "[MISS] %s: %s not found\n", c.Name, c.File)
			log.Warn().Str("component", c.Name).Str("path", c.Path).Msg("Dataset file not found.")
			missing++
			continue
		}
		digest, err := HashFile(c.Path, algo)
		if err != nil {
			fmt.Fprintf(env.Out, "[ERR ] %s: %v\n", c.Name, err)
			log.Warn().Err(err).Str("component", c.Name).Msg("Unable to hash dataset file.")
			unreadable++
			continue
		}

		item := lk.Items[c.Name]
		switch {
		case item == nil:
			fmt.Fprintf(env.Out, "[NEW ] %s: %s\n", c.Name, c.File)
		case item.Digest != digest || item.File != c.File:
			fmt.Fprintf(env.Out, "[CHG ] %s: %s (lock=%q -> now=%q)\n", c.Name, c.File, item.Digest, digest)
			changed++
		default:
			fmt.Fprintf(env.Out, "[OK  ] %s: %s\n", c.Name, c.File)
		}
		log.Debug().Str("component", c.Name).Str(algo, digest).Msg("Hashed dataset file.")
		lk.Items[c.Name] = &LockItem{File: c.File, Digest: digest, CheckedAt: &now}
	}

	for name := range lk.Items {
		if !names[name] {
			log.Info().Str("component", name).Msg("Component no longer used, dropped from lock.")
			delete(lk.Items, name)
		}
	}

	if !cfg.Check.SkipProvenance {
		reportProvenance(env)
	}

	lk.Version = 1
	lk.Algo = algo
	lk.LastChecked = &now
	if err := writeLock(lockPath, lk); err != nil {
		return fmt.Errorf("check: write lock: %w", err)
	}

	fmt.Fprintf(env.Out, "Checked %d file(s): %d missing, %d changed.\n", checked, missing, changed)
	log.Info().Int("checked", checked).Int("missing", missing).Int("unreadable", unreadable).
		Int("changed", changed).Str("lock", lockPath).Msg("Check complete.")

	if missing > 0 || unreadable > 0 {
		return fmt.Errorf("check: %d missing and %d unreadable dataset file(s)", missing, unreadable)
	}
	return nil
}

// reportProvenance is best effort: a dataset outside git, or a repository
// go-git cannot read, only produces log entries.
func reportProvenance(env registry.Env) {
	ds := env.Dataset
	rep, err := provenance.Inspect(ds.Dir, ds.Files())
	if err != nil {
		env.Log.Warn().Err(err).Msg("Unable to inspect dataset repository.")
		return
	}
	if rep == nil {
		env.Log.Debug().Str("dir", ds.Dir).Msg("Dataset is not under git.")
		return
	}
	env.Log.Info().Str("root", rep.Root).Str("branch", rep.Branch).Str("head", rep.Head).Msg("Dataset repository.")

	byPath := map[string]dataset.Component{}
	for _, c := range ds.Components {
		if c.Used() {
			byPath[c.Path] = c
		}
	}
	for _, f := range rep.Dirty(ds.Files()) {
		st := rep.Files[f]
		if st == provenance.Outside {
			continue
		}
		c := byPath[f]
		fmt.Fprintf(env.Out, "[GIT ] %s: %s is %s\n", c.Name, c.File, st)
		env.Log.Info().Str("component", c.Name).Str("state", string(st)).Msg("Dataset file differs from HEAD.")
	}
}
