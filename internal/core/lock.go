package core

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LockSuffix is appended to the response file path to name the lock written
// by check mode.
const LockSuffix = ".lock.yaml"

// Lock records the digest of every dataset file as of the last check.
type Lock struct {
	Version     int                  `yaml:"version"`
	Algo        string               `yaml:"algo"`
	LastChecked *time.Time           `yaml:"last_checked,omitempty"`
	Items       map[string]*LockItem `yaml:"items"`
}

// LockItem is keyed by component name in Lock.Items.
type LockItem struct {
	File      string     `yaml:"file"`
	Digest    string     `yaml:"digest"`
	CheckedAt *time.Time `yaml:"checked_at,omitempty"`
}

// readLock returns an empty lock when path does not exist.
func readLock(path string) (*Lock, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Lock{Version: 1, Items: map[string]*LockItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var l Lock
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, err
	}
	if l.Items == nil {
		l.Items = map[string]*LockItem{}
	}
	return &l, nil
}

// writeLock replaces path atomically.
func writeLock(path string, l *Lock) error {
	b, err := yaml.Marshal(l)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
