package compiler

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/lhaig/clarwasm/internal/codegen"
	"github.com/lhaig/clarwasm/internal/logging"
)

// ConfigFileName is the project configuration file looked up by the driver
const ConfigFileName = "clarwasm.toml"

const (
	maxMemoryPages  = 65536
	wasmPageSize    = 65536
	defaultMaxSteps = 10000000
)

// tomlConfigFile represents the configuration file as it is encoded in TOML
type tomlConfigFile struct {
	Compiler *tomlCompiler `toml:"compiler"`
	Runtime  *tomlRuntime  `toml:"runtime"`
	Output   *tomlOutput   `toml:"output"`
}

type tomlCompiler struct {
	MemoryPages *int64 `toml:"memory-pages"`
	DataOffset  *int64 `toml:"data-offset"`
	LogLevel    string `toml:"log-level,omitempty"`
}

type tomlRuntime struct {
	MaxSteps *int64 `toml:"max-steps"`
}

type tomlOutput struct {
	Target string `toml:"target,omitempty"`
}

// Config holds the settings for one compiler invocation
type Config struct {
	MemoryPages uint32
	DataOffset  uint32
	LogLevel    string
	MaxSteps    int
	Target      string
}

// DefaultConfig returns the settings used when no configuration file exists
func DefaultConfig() *Config {
	opts := codegen.DefaultOptions()
	return &Config{
		MemoryPages: opts.MemoryPages,
		DataOffset:  opts.DataOffset,
		LogLevel:    "warn",
		MaxSteps:    defaultMaxSteps,
		Target:      "wasm",
	}
}

// CodegenOptions returns the generator options selected by c
func (c *Config) CodegenOptions() codegen.Options {
	return codegen.Options{MemoryPages: c.MemoryPages, DataOffset: c.DataOffset}
}

// LoadConfig reads and validates the configuration file at path. A missing
// file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	buff, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	} else if err != nil {
		return nil, err
	}

	cfg, err := ParseConfig(buff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes configuration TOML over the defaults and validates it
func ParseConfig(buff []byte) (*Config, error) {
	tcf := &tomlConfigFile{}
	if err := toml.Unmarshal(buff, tcf); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if c := tcf.Compiler; c != nil {
		if c.MemoryPages != nil {
			if *c.MemoryPages < 1 || *c.MemoryPages > maxMemoryPages {
				return nil, fmt.Errorf("memory-pages must be between 1 and %d", maxMemoryPages)
			}
			cfg.MemoryPages = uint32(*c.MemoryPages)
		}
		if c.DataOffset != nil {
			if *c.DataOffset < 0 {
				return nil, errors.New("data-offset must not be negative")
			}
			cfg.DataOffset = uint32(*c.DataOffset)
		}
		if c.LogLevel != "" {
			cfg.LogLevel = c.LogLevel
		}
	}
	if r := tcf.Runtime; r != nil && r.MaxSteps != nil {
		cfg.MaxSteps = int(*r.MaxSteps)
	}
	if o := tcf.Output; o != nil && o.Target != "" {
		cfg.Target = o.Target
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable together. The CLI calls it
// again after applying flag overrides.
func (c *Config) Validate() error {
	if c.MemoryPages < 1 || c.MemoryPages > maxMemoryPages {
		return fmt.Errorf("memory-pages must be between 1 and %d", maxMemoryPages)
	}

	if uint64(c.DataOffset) >= uint64(c.MemoryPages)*wasmPageSize {
		return fmt.Errorf("data-offset %d lies outside %d page(s) of memory", c.DataOffset, c.MemoryPages)
	}

	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log-level %q", c.LogLevel)
	}

	if c.MaxSteps <= 0 {
		return errors.New("max-steps must be positive")
	}

	if _, err := getBackend(c.Target); err != nil {
		return err
	}

	return nil
}
