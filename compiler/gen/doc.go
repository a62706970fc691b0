// Package gen synthesizes equality, ordering and hashing for the types
// described by package load, and renders them as Go code.
//
// # Architecture
//
// Each annotated type runs through a pure, synchronous pipeline:
//
//	load.Schema
//	        ↓
//	   Resolve     (directives and tags → per-field decisions)
//	        ↓
//	   BuildPlan   (keys ordered by priority, capabilities validated)
//	        ↓
//	   Synthesize  (one operation per key and capability)
//	        ↓
//	   bound pass  (type parameter constraints)
//	        ↓
//	   Emit        (jennifer statements)
//
// Process runs the whole pipeline on one schema and returns the Logic of
// the type with its Diagnostics. Errors of one type never stop the other
// types of the package from being generated.
//
// # Key Types
//
//   - Resolution: the include/exclude decision of every field
//   - Plan: the ordered keys of every variant
//   - Logic: the synthesized operations, also evaluable by reflection
//   - Diagnostic: a positioned error or warning
//   - Graph: the packages of a run and their results
//   - Config: configuration of a run
//
// # Error Handling
//
// The package uses structured error types, each matching a sentinel with
// errors.Is:
//
//   - SchemaError: the declaration cannot be described (ErrInvalidSchema)
//   - AnnotationError: malformed or conflicting directives (ErrInvalidAnnotation)
//   - PlanError: a key lacks a requested capability (ErrInvalidPlan)
//   - EmitError: type parameter constraints cannot be satisfied (ErrEmitFailed)
//   - ConfigError: invalid configuration (ErrMissingConfig)
//   - GenerationError: rendering, formatting or writing failed (ErrGenerationFailed)
//
// Example error handling:
//
//	if err := graph.Err(); err != nil {
//	    if errors.Is(err, gen.ErrInvalidPlan) {
//	        // a selected field cannot be compared
//	    }
//	    return err
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	config, err := gen.NewConfig(
//	    gen.WithDir("./internal/model"),
//	    gen.WithSuffix("_cmp.go"),
//	    gen.WithLogger(logger),
//	)
//	graph, err := compiler.Generate(ctx, config, "./...")
//
// # Generated Output
//
// One file per package, named after the package with the configured
// suffix (model_cmpby.go by default). It carries the build constraint
// !cmpbygen so that it never takes part in the next extraction.
package gen
