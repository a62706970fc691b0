package gen

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/cmpby/compiler/load"
)

// JenniferGenerator generates the comparison code of every package of a
// graph with jennifer. Packages are independent and generated in parallel.
type JenniferGenerator struct {
	graph   *Graph
	workers int
	log     *zap.Logger
	writer  *Writer
}

// NewJenniferGenerator creates a generator for the graph.
func NewJenniferGenerator(g *Graph) *JenniferGenerator {
	return &JenniferGenerator{
		graph:   g,
		workers: g.workers(),
		log:     g.logger(),
		writer:  NewWriter(g.DryRun),
	}
}

// WithWorkers sets the number of parallel workers.
func (g *JenniferGenerator) WithWorkers(n int) *JenniferGenerator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Metrics returns the metrics of the underlying writer.
func (g *JenniferGenerator) Metrics() WriterMetrics {
	return g.writer.Metrics()
}

// Generate generates all packages and stores their results in the graph.
// Diagnostics do not fail the run; they are collected in the results.
// The returned error reports I/O failures and cancellation only.
func (g *JenniferGenerator) Generate(ctx context.Context) error {
	results := make([]*Result, len(g.graph.Packages))
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.workers)
	for i, pkg := range g.graph.Packages {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := g.genPackage(pkg)
			results[i] = r
			return err
		})
	}
	err := errg.Wait()
	for _, r := range results {
		if r != nil {
			g.graph.Results = append(g.graph.Results, r)
		}
	}
	m := g.writer.Metrics()
	g.log.Debug("generation finished",
		zap.Int("packages", len(g.graph.Packages)),
		zap.Int("written", m.FilesGenerated),
		zap.Int("unchanged", m.FilesUnchanged),
		zap.Int("removed", m.FilesRemoved),
		zap.Duration("format", m.FormatTime),
	)
	return err
}

// ProcessPackage runs the pipeline on the schemas of one package without writing
// anything. Failures of the extractor become schema errors.
func ProcessPackage(pkg *load.Package) ([]*Logic, Diagnostics) {
	var (
		logics []*Logic
		diags  Diagnostics
	)
	for _, f := range pkg.Failures {
		diags = append(diags, Failure(f))
	}
	for _, s := range pkg.Schemas {
		l, ds := Process(s)
		diags = append(diags, ds...)
		if l != nil {
			logics = append(logics, l)
		}
	}
	for {
		var (
			ds      Diagnostics
			changed bool
		)
		logics, ds = dropBroken(pkg, logics)
		diags = append(diags, ds...)
		for _, l := range logics {
			l.Link(logics...)
		}
		logics, ds, changed = rebound(logics)
		diags = append(diags, ds...)
		if !changed {
			break
		}
	}
	diags.Sort()
	return logics, diags
}

// dropBroken removes the logics that key on an annotated type of the
// package whose generation failed, since their code would call functions or
// methods that are never generated. It repeats until no logic depends on a
// dropped one.
func dropBroken(pkg *load.Package, logics []*Logic) ([]*Logic, Diagnostics) {
	var diags Diagnostics
	for {
		ok := make(map[string]bool, len(logics))
		for _, l := range logics {
			ok[l.Plan.Schema.Name] = true
		}
		kept := logics[:0:0]
		for _, l := range logics {
			if k := missingDep(pkg, l, ok); k != nil {
				diags = append(diags, errorDiag(NewPlanError(l.Plan.Schema.Name, k.Name, k.Pos,
					"type %s was not generated: fix its errors first", k.Type.Name)))
				continue
			}
			kept = append(kept, l)
		}
		if len(kept) == len(logics) {
			return kept, diags
		}
		logics = kept
	}
}

// rebound runs the bound pass again on the generic logics, now that the
// constraints of the generic types they key on are known. Logics whose
// constraints cannot take the new bounds are dropped. It reports whether
// any logic changed or was dropped.
func rebound(logics []*Logic) ([]*Logic, Diagnostics, bool) {
	var (
		diags   Diagnostics
		changed bool
		kept    = logics[:0:0]
	)
	for _, l := range logics {
		if !l.Plan.Schema.Generic() {
			kept = append(kept, l)
			continue
		}
		before := l.constraintsKey()
		if ds := propagateBounds(l); ds.HasErrors() {
			diags = append(diags, ds...)
			changed = true
			continue
		}
		if l.constraintsKey() != before {
			changed = true
		}
		kept = append(kept, l)
	}
	return kept, diags, changed
}

// missingDep returns the first key whose operations come from the generated
// code of an annotated type that has no logic.
func missingDep(pkg *load.Package, l *Logic, ok map[string]bool) *Key {
	for _, s := range l.Steps() {
		t := s.Key.Type
		if !t.Derived || t.PkgPath != pkg.PkgPath || ok[t.Name] {
			continue
		}
		switch {
		case s.Eq == EqFunc || s.Eq == EqMethod || s.Eq == EqCompareMethod,
			s.Cmp == CmpFunc || s.Cmp == CmpMethod,
			s.Hash == HashFunc || s.Hash == HashMethod:
			return s.Key
		}
	}
	return nil
}

func (g *JenniferGenerator) genPackage(pkg *load.Package) (*Result, error) {
	log := g.log.With(zap.String("package", pkg.PkgPath))
	logics, diags := ProcessPackage(pkg)
	r := &Result{
		Package:     pkg,
		File:        filepath.Join(pkg.Dir, pkg.Name+g.graph.suffix()),
		Types:       logics,
		Diagnostics: diags,
	}
	for _, d := range diags {
		log.Warn("diagnostic", zap.Stringer("severity", d.Severity), zap.String("pos", d.Pos.String()), zap.Error(d.Err))
	}
	if len(logics) == 0 {
		removed, err := g.writer.Remove(r.File)
		if err != nil {
			return r, err
		}
		if removed {
			log.Debug("removed stale file", zap.String("file", r.File))
		}
		r.Removed = removed
		return r, nil
	}
	f := NewFile(pkg.PkgPath, pkg.Name, g.graph.header())
	for _, l := range logics {
		log.Debug("emitting type",
			zap.String("type", l.Plan.Schema.Name),
			zap.Stringer("kind", l.Plan.Schema.Kind),
			zap.Int("keys", l.Plan.NumKeys()),
		)
		Emit(f, l)
	}
	src, changed, err := g.writer.Write(r.File, f)
	if err != nil {
		return r, err
	}
	r.Source, r.Written = src, changed && !g.graph.DryRun
	log.Debug("generated file", zap.String("file", r.File), zap.Bool("changed", changed))
	return r, nil
}
