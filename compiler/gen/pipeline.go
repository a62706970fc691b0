package gen

import (
	"github.com/syssam/cmpby/compiler/load"
)

// Process runs the per-type pipeline on a schema: directive resolution,
// plan validation, synthesis and the bound pass. Annotation, plan and emit
// errors are batched; when any is reported the returned logic is nil and
// nothing must be emitted for the type.
func Process(s *load.Schema) (*Logic, Diagnostics) {
	res, diags := Resolve(s)
	plan, planDiags := BuildPlan(res)
	diags = append(diags, planDiags...)
	l := Synthesize(plan)
	diags = append(diags, propagateBounds(l)...)
	diags.Sort()
	if diags.HasErrors() {
		return nil, diags
	}
	return l, diags
}

// Failure converts an extraction failure into a schema error diagnostic.
func Failure(f *load.Failure) *Diagnostic {
	return errorDiag(NewSchemaError(f.Type, f.Pos, f.Message, nil))
}
