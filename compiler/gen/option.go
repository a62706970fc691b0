package gen

import (
	"errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Option configures code generation.
type Option func(*Config) error

// WithDir sets the directory package patterns are resolved in.
func WithDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Dir", nil, "directory cannot be empty")
		}
		c.Dir = dir
		return nil
	}
}

// WithBuildFlags sets custom build flags for loading packages.
func WithBuildFlags(flags ...string) Option {
	return func(c *Config) error {
		c.BuildFlags = append(c.BuildFlags, flags...)
		return nil
	}
}

// WithSuffix sets the suffix of generated file names.
// The suffix must end in ".go" and must not contain a path separator.
func WithSuffix(suffix string) Option {
	return func(c *Config) error {
		switch {
		case !strings.HasSuffix(suffix, ".go") || suffix == ".go":
			return NewConfigError("Suffix", suffix, "suffix must end in .go")
		case strings.HasSuffix(suffix, "_test.go"):
			return NewConfigError("Suffix", suffix, "generated files cannot be test files")
		case strings.ContainsRune(suffix, filepath.Separator) || strings.ContainsRune(suffix, '/'):
			return NewConfigError("Suffix", suffix, "suffix cannot contain a path separator")
		}
		c.Suffix = suffix
		return nil
	}
}

// WithHeader sets the file header comment.
// The header is added at the top of each generated file. It must be a
// generated-code marker ("Code generated ... DO NOT EDIT."), otherwise stale
// files could not be told apart from hand-written ones. An empty header
// selects the default.
func WithHeader(header string) Option {
	return func(c *Config) error {
		if header != "" && !IsGeneratedHeader(header) {
			return NewConfigError("Header", header, `header must match "Code generated .* DO NOT EDIT."`)
		}
		c.Header = header
		return nil
	}
}

// WithWorkers sets the number of packages generated in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("Workers", n, "workers cannot be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithDryRun renders files without writing them.
func WithDryRun(dry bool) Option {
	return func(c *Config) error {
		c.DryRun = dry
		return nil
	}
}

// WithHooks adds generation hooks. The first hook added wraps all the
// others.
func WithHooks(hooks ...Hook) Option {
	return func(c *Config) error {
		c.Hooks = append(c.Hooks, hooks...)
		return nil
	}
}

// WithLogger sets the logger of the run.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
