// Package config reads the optional statemod.yaml settings file that sits
// next to a response file.
//
// A dataset directory without the file behaves exactly as if it contained:
//
//	version: 1
//	logging:
//	  console_level: warn
//	  file_level: debug
//	  format: text
//	check:
//	  algo: sha256
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jprybylski/statemod/internal/logging"
	"github.com/jprybylski/statemod/internal/runmode"
)

// FileName is looked up in the response file's directory.
const FileName = "statemod.yaml"

// Config is the structure of statemod.yaml.
type Config struct {
	Version  int               `yaml:"version"`
	Logging  Logging           `yaml:"logging"`
	Check    Check             `yaml:"check"`
	Commands map[string]string `yaml:"commands,omitempty"` // run mode lowercase name -> shell command
}

// Logging controls the log sink.
type Logging struct {
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
	Format       string `yaml:"format"` // "text" or "json"
}

// Check controls check mode.
type Check struct {
	Algo           string `yaml:"algo"` // "sha256" or "blake2b"
	SkipProvenance bool   `yaml:"skip_provenance"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads dir/statemod.yaml. A missing file is not an error and yields
// Default(). Any other problem returns Default() together with the error so
// the caller can warn and carry on.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Logging.ConsoleLevel == "" {
		c.Logging.ConsoleLevel = zerolog.WarnLevel.String()
	}
	if c.Logging.FileLevel == "" {
		c.Logging.FileLevel = zerolog.DebugLevel.String()
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Check.Algo == "" {
		c.Check.Algo = "sha256"
	}
}

func (c *Config) validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported version %d", c.Version)
	}
	if _, err := zerolog.ParseLevel(c.Logging.ConsoleLevel); err != nil {
		return fmt.Errorf("logging.console_level: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.Logging.FileLevel); err != nil {
		return fmt.Errorf("logging.file_level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q: must be 'text' or 'json'", c.Logging.Format)
	}
	switch c.Check.Algo {
	case "sha256", "blake2b":
	default:
		return fmt.Errorf("check.algo %q: must be 'sha256' or 'blake2b'", c.Check.Algo)
	}

	keys := make([]string, 0, len(c.Commands))
	for k := range c.Commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	seen := map[runmode.Mode]string{}
	for _, k := range keys {
		m, ok := runmode.Parse(k)
		if !ok || m == runmode.Check {
			return fmt.Errorf("commands.%s: only %q and %q may run an external command",
				k, runmode.Baseflows.LowercaseName(), runmode.Simulate.LowercaseName())
		}
		if prev, dup := seen[m]; dup {
			return fmt.Errorf("commands.%s: duplicates commands.%s", k, prev)
		}
		seen[m] = k
	}
	return nil
}

// Command returns the external command configured for mode, if any. Load
// rejects two keys naming the same mode, so at most one entry matches.
func (c *Config) Command(mode runmode.Mode) (string, bool) {
	for k, v := range c.Commands {
		if m, ok := runmode.Parse(k); ok && m == mode && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// LogOptions converts the logging section. Values were validated by Load.
func (c *Config) LogOptions() logging.Options {
	def := logging.DefaultOptions()
	opts := logging.Options{JSON: c.Logging.Format == "json"}
	opts.ConsoleLevel, _ = logging.ParseLevel(c.Logging.ConsoleLevel, def.ConsoleLevel)
	opts.FileLevel, _ = logging.ParseLevel(c.Logging.FileLevel, def.FileLevel)
	return opts
}
