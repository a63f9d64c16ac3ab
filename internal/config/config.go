// Package config loads the YAML configuration that selects the disk
// backend and buffer pool sizing for a barrowdb instance.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names one of the disk.Manager constructors.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
	BackendDirect Backend = "direct"
)

// Config is the on-disk YAML shape. Page size is not configurable: it is
// fixed at page.Size for the lifetime of a data file.
type Config struct {
	// DataFile is the path to the backing data file. Ignored for
	// BackendMemory.
	DataFile string `yaml:"data_file"`
	// Backend selects how pages are read from and written to storage.
	Backend Backend `yaml:"backend"`
	// BufferPoolFrames is the fixed number of page frames the buffer
	// pool holds. Must exceed the tree's max depth plus a small
	// constant, or deep trees will see ErrNoFreeBuffer under
	// concurrent pins.
	BufferPoolFrames int `yaml:"buffer_pool_frames"`
}

const defaultBufferPoolFrames = 64

// Default returns the configuration a fresh instance starts from.
func Default() Config {
	return Config{
		DataFile:         "barrow.db",
		Backend:          BackendFile,
		BufferPoolFrames: defaultBufferPoolFrames,
	}
}

// Load reads and validates a YAML config file at path.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that would fail later in confusing
// ways rather than up front.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendMemory, BackendDirect:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend != BackendMemory && c.DataFile == "" {
		return fmt.Errorf("data_file is required for backend %q", c.Backend)
	}
	if c.BufferPoolFrames <= 0 {
		return fmt.Errorf("buffer_pool_frames must be positive, got %d", c.BufferPoolFrames)
	}
	return nil
}
