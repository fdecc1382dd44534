// Package config holds the tunables of a heapstore instance and loads them
// from TOML files.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"heapstore/pkg/logging"
)

type StorageConfig struct {
	PageSize int    `toml:"page_size" mapstructure:"page_size"`
	DataDir  string `toml:"data_dir" mapstructure:"data_dir"`
}

type BufferPoolConfig struct {
	MaxPages int `toml:"max_pages" mapstructure:"max_pages"`
}

type LockConfig struct {
	Timeout Duration `toml:"timeout" mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Format     string `toml:"format" mapstructure:"format"`
	OutputPath string `toml:"output_path" mapstructure:"output_path"`
}

// Config is the full set of tunables.
type Config struct {
	Storage    StorageConfig    `toml:"storage" mapstructure:"storage"`
	BufferPool BufferPoolConfig `toml:"buffer_pool" mapstructure:"buffer_pool"`
	Lock       LockConfig       `toml:"lock" mapstructure:"lock"`
	Logging    LoggingConfig    `toml:"logging" mapstructure:"logging"`
}

// Duration lets TOML files spell timeouts as "750ms" or "2s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

const (
	DefaultPageSize    = 4096
	DefaultMaxPages    = 50
	DefaultLockTimeout = 750 * time.Millisecond
)

func Default() *Config {
	return &Config{
		Storage:    StorageConfig{PageSize: DefaultPageSize, DataDir: "data"},
		BufferPool: BufferPoolConfig{MaxPages: DefaultMaxPages},
		Lock:       LockConfig{Timeout: Duration{DefaultLockTimeout}},
		Logging:    LoggingConfig{Level: string(logging.LevelInfo), Format: "console"},
	}
}

// LoadFile reads a TOML file on top of Default. Keys missing from the file
// keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Storage.PageSize <= 0 {
		return fmt.Errorf("storage.page_size must be positive, got %d", c.Storage.PageSize)
	}
	if c.BufferPool.MaxPages <= 0 {
		return fmt.Errorf("buffer_pool.max_pages must be positive, got %d", c.BufferPool.MaxPages)
	}
	if c.Lock.Timeout.Duration <= 0 {
		return fmt.Errorf("lock.timeout must be positive, got %s", c.Lock.Timeout)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// LoggerConfig converts the logging section for logging.Init.
func (c *Config) LoggerConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return logging.Config{
		Level:      level,
		OutputPath: c.Logging.OutputPath,
		Format:     c.Logging.Format,
	}
}
