package gen

import (
	"strings"

	"github.com/syssam/cmpby/compiler/load"
)

// Bound is a set of requirements the generated code places on a type
// parameter.
type Bound uint8

// Bounds.
const (
	BoundComparable Bound = 1 << iota
	BoundOrdered
)

// String implements fmt.Stringer.
func (b Bound) String() string {
	var names []string
	if b&BoundComparable != 0 {
		names = append(names, "comparable")
	}
	if b&BoundOrdered != 0 {
		names = append(names, "cmp.Ordered")
	}
	return strings.Join(names, " and ")
}

// Constraint is the constraint of a type parameter in a generated function:
// the declared constraint with the bound the keys require added to it.
type Constraint struct {
	Param    string
	Declared *load.TypeRef
	Add      Bound
}

// has returns the bounds the declared constraint of tp guarantees.
func has(tp *load.TypeParam) Bound {
	var b Bound
	if tp.Caps.Comparable {
		b |= BoundComparable
	}
	if tp.Caps.Ordered {
		b |= BoundOrdered | BoundComparable
	}
	return b
}

// requirements collects the bounds that the steps of one capability place on
// the type parameters they mention.
func requirements(l *Logic, c Capability) map[string]Bound {
	need := make(map[string]Bound)
	add := func(t *load.TypeRef, b Bound) {
		if t == nil {
			return
		}
		switch {
		case b == BoundComparable && t.Caps.Comparable:
			return
		case b == BoundOrdered && t.Caps.Ordered:
			return
		}
		for _, p := range t.Params {
			need[p] |= b
		}
	}
	for _, s := range l.Steps() {
		t := s.Key.Type
		if len(t.Params) == 0 {
			continue
		}
		switch c {
		case CapabilityEqual:
			switch s.Eq {
			case EqOperator:
				add(t, BoundComparable)
			case EqSlice:
				add(t.Elem, BoundComparable)
			case EqSliceCompare, EqArrayCompare:
				add(t.Elem, BoundOrdered)
			case EqFunc:
				l.depBounds(t, c, add)
			}
		case CapabilityCompare:
			switch s.Cmp {
			case CmpOrdered:
				add(t, BoundOrdered)
			case CmpSlice, CmpArray:
				add(t.Elem, BoundOrdered)
			case CmpFunc:
				l.depBounds(t, c, add)
			}
		case CapabilityHash:
			switch s.Hash {
			case HashValue:
				add(t, BoundComparable)
			case HashSlice:
				add(t.Elem, BoundComparable)
			case HashFunc:
				l.depBounds(t, c, add)
			}
		}
	}
	return need
}

// depBounds adds the bounds that the generated function of another generic
// type of the package places on its type parameters to the type arguments
// the key passes. It needs the logic of that type to be linked.
func (l *Logic) depBounds(t *load.TypeRef, c Capability, add func(*load.TypeRef, Bound)) {
	d, ok := l.deps[t.Name]
	if !ok || d == l {
		return
	}
	cons := d.Constraints[c]
	for i, a := range t.Args {
		if i < len(cons) && cons[i].Add != 0 {
			add(a, cons[i].Add)
		}
	}
}

// constraintsKey renders the constraints of all capabilities, to detect
// changes between bound passes.
func (l *Logic) constraintsKey() string {
	var b strings.Builder
	for _, c := range Capabilities(l.Plan.Derive) {
		for _, con := range l.Constraints[c] {
			b.WriteString(con.String())
			b.WriteByte(';')
		}
	}
	return b.String()
}

// propagateBounds is the bound pass. It computes, per requested capability,
// the constraint of every type parameter in the generated code. Methods
// cannot constrain the type parameters of their receiver further, so a
// record deriving methods must already declare sufficient constraints.
// Functions receive the required bound on top of the declared constraint,
// unless type terms fix the type set.
func propagateBounds(l *Logic) Diagnostics {
	var (
		diags Diagnostics
		p     = l.Plan
		s     = p.Schema
	)
	l.Constraints = make(map[Capability][]*Constraint)
	for _, c := range Capabilities(p.Derive) {
		need := requirements(l, c)
		for _, tp := range s.TypeParams {
			missing := need[tp.Name] &^ has(tp)
			if missing&BoundOrdered != 0 {
				missing &^= BoundComparable
			}
			cons := &Constraint{Param: tp.Name, Declared: tp.Constraint}
			switch {
			case missing == 0:
			case !p.Funcs():
				diags = append(diags, errorDiag(NewEmitError(s.Name, tp.Name, s.Pos,
					"method %s requires %s but the constraint %s does not guarantee it; tighten the constraint or derive functions with //cmpby:derive func",
					c.Method, missing, tp.Constraint.Expr)))
			case tp.Terms:
				diags = append(diags, errorDiag(NewEmitError(s.Name, tp.Name, s.Pos,
					"function %s requires %s but the constraint %s fixes the type set",
					c.FuncName(s.Name), missing, tp.Constraint.Expr)))
			default:
				cons.Add = missing
			}
			l.Constraints[c] = append(l.Constraints[c], cons)
		}
	}
	return diags
}

// String returns the constraint as it appears in the generated code.
func (c *Constraint) String() string {
	declared := c.Declared.Expr
	open := declared == "any" || declared == "interface{}"
	switch {
	case c.Add == 0:
		return declared
	case c.Add&BoundOrdered != 0:
		if open || declared == "comparable" {
			return "cmp.Ordered"
		}
		return "interface{ " + declared + "; cmp.Ordered }"
	case open:
		return "comparable"
	default:
		return "interface{ " + declared + "; comparable }"
	}
}
