package gen

import (
	"context"
	"runtime"
	"slices"

	"go.uber.org/zap"

	"github.com/syssam/cmpby/compiler/load"
)

// DefaultSuffix is the file name suffix of generated files: the package
// name followed by it.
const DefaultSuffix = "_cmpby.go"

type (
	// Config holds the configuration of a generation run.
	Config struct {
		// Dir is the directory package patterns are resolved in.
		Dir string
		// BuildFlags are passed to the build system when loading packages.
		BuildFlags []string
		// Suffix of the generated file of each package.
		// Defaults to DefaultSuffix.
		Suffix string
		// Header replaces the generated-code header line.
		Header string
		// Workers bounds the number of packages generated in parallel.
		// Defaults to GOMAXPROCS.
		Workers int
		// DryRun renders and reports without touching the file system.
		DryRun bool
		// Hooks wrap the generator.
		Hooks []Hook
		// Logger receives progress at debug level and diagnostics at warn
		// level. Defaults to a no-op logger.
		Logger *zap.Logger
	}

	// Graph holds the loaded packages of a run and, after Gen, the result
	// of each of them.
	Graph struct {
		*Config
		Packages []*load.Package
		Results  []*Result
	}

	// Result is the outcome of generating one package.
	Result struct {
		Package *load.Package
		// File is the path of the generated file.
		File string
		// Types holds the logic of the types that were emitted.
		Types       []*Logic
		Diagnostics Diagnostics
		// Source is the formatted file content. Nil when no type of the
		// package was emitted.
		Source []byte
		// Written reports whether File was written or refreshed on disk.
		Written bool
		// Removed reports whether a stale generated file was deleted.
		Removed bool
	}

	// Generator is the interface that wraps the Generate method.
	Generator interface {
		// Generate generates the code of the graph.
		Generate(*Graph) error
	}

	// GenerateFunc adapts an ordinary function to Generator.
	GenerateFunc func(*Graph) error

	// Hook is a middleware of the generator.
	//
	//	func logHook(next gen.Generator) gen.Generator {
	//		return gen.GenerateFunc(func(g *gen.Graph) error {
	//			start := time.Now()
	//			defer func() { log.Println(time.Since(start)) }()
	//			return next.Generate(g)
	//		})
	//	}
	Hook func(Generator) Generator
)

// Generate calls f(g).
func (f GenerateFunc) Generate(g *Graph) error {
	return f(g)
}

// NewGraph creates a graph of the given packages.
func NewGraph(c *Config, pkgs ...*load.Package) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "missing config")
	}
	if c.Workers < 0 {
		return nil, NewConfigError("Workers", c.Workers, "workers cannot be negative")
	}
	return &Graph{Config: c, Packages: pkgs}, nil
}

// Gen generates the code of all packages with the default generator
// wrapped by the configured hooks.
func (g *Graph) Gen() error {
	return g.GenContext(context.Background())
}

// GenContext is like Gen with a context that cancels the outer run.
func (g *Graph) GenContext(ctx context.Context) error {
	var gen Generator = GenerateFunc(func(g *Graph) error {
		return NewJenniferGenerator(g).Generate(ctx)
	})
	for i := len(g.Hooks) - 1; i >= 0; i-- {
		gen = g.Hooks[i](gen)
	}
	return gen.Generate(g)
}

// Diagnostics returns the diagnostics of all results, sorted by position.
func (g *Graph) Diagnostics() Diagnostics {
	var ds Diagnostics
	for _, r := range g.Results {
		ds = append(ds, r.Diagnostics...)
	}
	ds.Sort()
	return ds
}

// Err returns the errors of all results joined, or nil.
func (g *Graph) Err() error {
	return g.Diagnostics().Err()
}

// Logic returns the emitted logic of the named type of the package with
// the given import path, or nil.
func (g *Graph) Logic(pkgPath, name string) *Logic {
	for _, r := range g.Results {
		if r.Package.PkgPath != pkgPath {
			continue
		}
		i := slices.IndexFunc(r.Types, func(l *Logic) bool { return l.Plan.Schema.Name == name })
		if i >= 0 {
			return r.Types[i]
		}
	}
	return nil
}

func (c *Config) suffix() string {
	if c.Suffix == "" {
		return DefaultSuffix
	}
	return c.Suffix
}

func (c *Config) header() string {
	if c.Header == "" {
		return Header
	}
	return c.Header
}

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// LoadConfig returns the extractor configuration of c.
func (c *Config) LoadConfig() *load.Config {
	return &load.Config{Dir: c.Dir, BuildFlags: c.BuildFlags}
}
