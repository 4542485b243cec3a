// Package config handles loading compiler configuration from files.
//
// Configuration is a TOML file named bfc.toml, .bfcrc, or .bfcrc.toml.
// The config file is searched for in the starting directory and its parents.
// Keys are the Go field names of Config.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/naoina/toml"

	"codeberg.org/saruga/bfc/internal/cgen"
	"codeberg.org/saruga/bfc/internal/compiler"
	"codeberg.org/saruga/bfc/internal/optimizer"
)

// Keys map one-to-one onto field names, and unknown keys are rejected.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Config represents the configuration file structure.
// Fields missing from the file keep their Default values.
type Config struct {
	// Optimize runs the peephole optimizer
	Optimize bool

	// MaxPasses caps optimizer passes
	MaxPasses int

	// Emit is the output format: "c", "bf", or "tree"
	Emit string

	// TapeSize is the number of cells in generated C
	TapeSize int

	// Compact minimizes whitespace in the output
	Compact bool

	// SourceMap writes a source map next to C output
	SourceMap bool
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"bfc.toml",
	".bfcrc",
	".bfcrc.toml",
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Optimize:  true,
		MaxPasses: optimizer.DefaultMaxPasses,
		Emit:      compiler.EmitC.String(),
		TapeSize:  cgen.DefaultTapeSize,
	}
}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path on top of Default.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(path + ", " + err.Error())
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	return tomlSettings.Marshal(&c)
}

// ToOptions converts a Config to compiler.Options. A nil Config yields the
// defaults.
func (c *Config) ToOptions() (compiler.Options, error) {
	cfg := Default()
	if c != nil {
		cfg = *c
	}

	emit, err := compiler.ParseEmit(cfg.Emit)
	if err != nil {
		return compiler.Options{}, fmt.Errorf("config: %w", err)
	}
	if cfg.TapeSize <= 0 {
		return compiler.Options{}, fmt.Errorf("config: TapeSize must be positive, got %d", cfg.TapeSize)
	}

	opts := compiler.DefaultOptions()
	opts.Optimize = cfg.Optimize
	opts.MaxPasses = cfg.MaxPasses
	opts.Emit = emit
	opts.TapeSize = cfg.TapeSize
	opts.Compact = cfg.Compact
	opts.GenerateSourceMap = cfg.SourceMap && emit == compiler.EmitC
	return opts, nil
}

// MergeOptions holds CLI flags. Nil means not specified on the CLI.
type MergeOptions struct {
	NoOptimize bool
	MaxPasses  *int
	Emit       *string
	TapeSize   *int
	Compact    *bool
	SourceMap  *bool
}

// Merge returns the config with CLI options applied on top.
// CLI options override config file options when specified.
func (c *Config) Merge(cli MergeOptions) Config {
	cfg := Default()
	if c != nil {
		cfg = *c
	}

	if cli.NoOptimize {
		cfg.Optimize = false
	}
	if cli.MaxPasses != nil {
		cfg.MaxPasses = *cli.MaxPasses
	}
	if cli.Emit != nil {
		cfg.Emit = *cli.Emit
	}
	if cli.TapeSize != nil {
		cfg.TapeSize = *cli.TapeSize
	}
	if cli.Compact != nil {
		cfg.Compact = *cli.Compact
	}
	if cli.SourceMap != nil {
		cfg.SourceMap = *cli.SourceMap
	}
	return cfg
}
