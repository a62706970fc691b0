package gen

import (
	"github.com/syssam/cmpby/compiler/load"
)

type (
	// Inspection describes the outcome of the pipeline on one package, in
	// a form suited to JSON and YAML output.
	Inspection struct {
		Package     string         `json:"package" yaml:"package"`
		Types       []*TypeSummary `json:"types,omitempty" yaml:"types,omitempty"`
		Diagnostics []string       `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	}

	// TypeSummary describes the synthesized logic of one type.
	TypeSummary struct {
		Name         string            `json:"name" yaml:"name"`
		Kind         load.Kind         `json:"kind" yaml:"kind"`
		Funcs        bool              `json:"funcs,omitempty" yaml:"funcs,omitempty"`
		Capabilities []string          `json:"capabilities" yaml:"capabilities"`
		TypeParams   []*ParamSummary   `json:"type_params,omitempty" yaml:"type_params,omitempty"`
		Leading      []*StepSummary    `json:"leading,omitempty" yaml:"leading,omitempty"`
		Variants     []*VariantSummary `json:"variants" yaml:"variants"`
		Trailing     []*StepSummary    `json:"trailing,omitempty" yaml:"trailing,omitempty"`
	}

	// ParamSummary holds the constraint of a type parameter per generated
	// function or method.
	ParamSummary struct {
		Name        string            `json:"name" yaml:"name"`
		Declared    string            `json:"declared" yaml:"declared"`
		Constraints map[string]string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	}

	// VariantSummary holds the keys of one variant in comparison order.
	VariantSummary struct {
		Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
		Ordinal int            `json:"ordinal" yaml:"ordinal"`
		Pointer bool           `json:"pointer,omitempty" yaml:"pointer,omitempty"`
		Keys    []*StepSummary `json:"keys,omitempty" yaml:"keys,omitempty"`
	}

	// StepSummary describes one key and the operations used on it.
	StepSummary struct {
		Key      string `json:"key" yaml:"key"`
		Type     string `json:"type" yaml:"type"`
		Priority int    `json:"priority" yaml:"priority"`
		Eq       EqOp   `json:"eq,omitempty" yaml:"eq,omitempty"`
		Cmp      CmpOp  `json:"cmp,omitempty" yaml:"cmp,omitempty"`
		Hash     HashOp `json:"hash,omitempty" yaml:"hash,omitempty"`
	}
)

// Inspect runs the pipeline on the package and summarizes the result.
func Inspect(pkg *load.Package) *Inspection {
	logics, diags := ProcessPackage(pkg)
	in := &Inspection{Package: pkg.PkgPath}
	for _, l := range logics {
		in.Types = append(in.Types, Summarize(l))
	}
	for _, d := range diags {
		in.Diagnostics = append(in.Diagnostics, d.String())
	}
	return in
}

// Summarize describes the logic of one type.
func Summarize(l *Logic) *TypeSummary {
	p := l.Plan
	ts := &TypeSummary{
		Name:     p.Schema.Name,
		Kind:     p.Schema.Kind,
		Funcs:    p.Funcs(),
		Leading:  stepSummaries(l.Leading),
		Trailing: stepSummaries(l.Trailing),
	}
	for _, c := range Capabilities(p.Derive) {
		ts.Capabilities = append(ts.Capabilities, c.Name)
	}
	for i, tp := range p.Schema.TypeParams {
		ps := &ParamSummary{Name: tp.Name, Declared: tp.Constraint.Expr}
		for _, c := range Capabilities(p.Derive) {
			if cons := l.Constraints[c]; i < len(cons) && cons[i].Add != 0 {
				if ps.Constraints == nil {
					ps.Constraints = make(map[string]string)
				}
				ps.Constraints[c.Name] = cons[i].String()
			}
		}
		ts.TypeParams = append(ts.TypeParams, ps)
	}
	for _, b := range l.Branches {
		ts.Variants = append(ts.Variants, &VariantSummary{
			Name:    b.Variant.Name,
			Ordinal: b.Variant.Ordinal,
			Pointer: b.Variant.Pointer,
			Keys:    stepSummaries(b.Steps),
		})
	}
	return ts
}

func stepSummaries(steps []*Step) []*StepSummary {
	if len(steps) == 0 {
		return nil
	}
	out := make([]*StepSummary, len(steps))
	for i, s := range steps {
		name := s.Key.Name
		if s.Key.Accessor {
			name += "()"
		}
		out[i] = &StepSummary{
			Key:      name,
			Type:     s.Key.Type.Expr,
			Priority: s.Key.Priority,
			Eq:       s.Eq,
			Cmp:      s.Cmp,
			Hash:     s.Hash,
		}
	}
	return out
}
