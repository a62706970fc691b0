// Package compiler is the entry point of cmpby code generation: it loads the
// packages matching a set of patterns and generates their comparison code.
package compiler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/syssam/cmpby/compiler/gen"
	"github.com/syssam/cmpby/compiler/load"
)

// Generate loads the packages matching the patterns and generates the
// comparison code of their annotated types. It returns the graph holding
// the result of every package. Diagnostics are reported through the graph,
// not the returned error, so that callers can print warnings and errors
// alike; use graph.Err to fail on errors.
func Generate(ctx context.Context, cfg *gen.Config, patterns ...string) (*gen.Graph, error) {
	if cfg == nil {
		return nil, gen.NewConfigError("Config", nil, "missing config")
	}
	pkgs, err := loadPackages(ctx, cfg, patterns...)
	if err != nil {
		return nil, err
	}
	g, err := gen.NewGraph(cfg, pkgs...)
	if err != nil {
		return nil, err
	}
	if err := g.GenContext(ctx); err != nil {
		return g, fmt.Errorf("cmpby: generating code: %w", err)
	}
	return g, nil
}

// Inspect loads the packages matching the patterns and describes the
// synthesized logic of their annotated types without generating code.
func Inspect(ctx context.Context, cfg *gen.Config, patterns ...string) ([]*gen.Inspection, error) {
	if cfg == nil {
		return nil, gen.NewConfigError("Config", nil, "missing config")
	}
	pkgs, err := loadPackages(ctx, cfg, patterns...)
	if err != nil {
		return nil, err
	}
	out := make([]*gen.Inspection, len(pkgs))
	for i, pkg := range pkgs {
		out[i] = gen.Inspect(pkg)
	}
	return out, nil
}

func loadPackages(ctx context.Context, cfg *gen.Config, patterns ...string) ([]*load.Package, error) {
	pkgs, err := cfg.LoadConfig().Load(ctx, patterns...)
	if err != nil {
		return nil, gen.NewGenerationError("load", "", "loading packages failed", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Debug("loaded packages", zap.Strings("patterns", patterns), zap.Int("packages", len(pkgs)))
	}
	return pkgs, nil
}
