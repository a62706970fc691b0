package gen

import (
	"cmp"
	"slices"

	"github.com/syssam/cmpby/compiler/load"
)

type (
	// Plan is the validated comparison plan of one type: the keys of each
	// variant in priority order. Sum types compare by variant ordinal
	// before any key.
	Plan struct {
		Schema   *load.Schema
		Derive   load.Derive
		Leading  []*Key
		Variants []*VariantPlan
		Trailing []*Key
	}

	// VariantPlan holds the keys of one variant.
	VariantPlan struct {
		Name    string
		Ordinal int
		Pointer bool
		Keys    []*Key
	}

	// Key is one comparison key: a field of the variant, an accessor
	// method of the type, or a field path like a.b.
	Key struct {
		Name     string
		Accessor bool
		// Index is the struct field index. Unused for accessors.
		Index int
		// Path is the field index path of a field path key.
		Path     []int
		Priority int
		Decl     int
		Type     *load.TypeRef
		Pos      load.Pos
	}
)

// Addressable reports whether the key operand is addressable in generated
// code. Method results are not.
func (k *Key) Addressable() bool { return !k.Accessor }

// Sum reports whether the plan is for a sum type.
func (p *Plan) Sum() bool { return p.Schema.Kind == load.Sum }

// Funcs reports whether the capabilities are generated as package
// functions rather than methods.
func (p *Plan) Funcs() bool { return p.Derive.Funcs || p.Sum() }

// NumKeys returns the number of keys of the plan, across all variants.
func (p *Plan) NumKeys() int {
	n := len(p.Leading) + len(p.Trailing)
	for _, v := range p.Variants {
		n += len(v.Keys)
	}
	return n
}

// BuildPlan collects the included fields of each variant, orders them by
// priority and declaration index, and validates that the requested
// capabilities can be synthesized for every key.
func BuildPlan(r *Resolution) (*Plan, Diagnostics) {
	var (
		s     = r.Schema
		diags Diagnostics
		p     = &Plan{Schema: s, Derive: r.Derive}
	)
	errorf := func(key string, pos load.Pos, format string, args ...any) {
		diags = append(diags, errorDiag(NewPlanError(s.Name, key, pos, format, args...)))
	}
	accessorKeys := func(as []*load.Accessor) []*Key {
		keys := make([]*Key, 0, len(as))
		for i, a := range as {
			keys = append(keys, &Key{Name: a.Name, Accessor: !a.Field(), Path: a.Path, Priority: i, Decl: i, Type: a.Type, Pos: a.Pos})
		}
		return keys
	}
	p.Leading = accessorKeys(r.Leading)
	p.Trailing = accessorKeys(r.Trailing)
	for _, v := range r.Variants {
		vp := &VariantPlan{Name: v.Name, Ordinal: v.Ordinal, Pointer: v.Pointer}
		for _, f := range v.Fields {
			name := v.target(f.Field)
			cmpIn := isIncluded(f.Cmp)
			hashIn := cmpIn
			if f.Hash != nil {
				hashIn = isIncluded(f.Hash)
			}
			switch {
			case cmpIn && !hashIn && r.Derive.Hash:
				errorf(name, f.Pos, "field is compared but excluded from hashing: hash keys must match comparison keys")
			case !cmpIn && hashIn && r.Derive.Hash:
				errorf(name, f.Pos, "field is hashed but excluded from comparison: equal values would hash differently")
			}
			if !cmpIn {
				continue
			}
			inc := f.Cmp.(Included)
			vp.Keys = append(vp.Keys, &Key{
				Name:     f.Name,
				Index:    f.Index,
				Priority: inc.Priority,
				Decl:     f.Decl,
				Type:     f.Type,
				Pos:      f.Pos,
			})
		}
		slices.SortStableFunc(vp.Keys, func(a, b *Key) int {
			return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.Decl, b.Decl))
		})
		p.Variants = append(p.Variants, vp)
	}
	check := func(prefix string, k *Key) {
		name := prefix + k.Name
		if k.Accessor {
			name += "()"
		}
		t := k.Type
		eq := selectEq(t, k.Addressable())
		switch {
		case !p.Derive.Equal || eq != 0:
		case t.Caps.Floats && comparableShape(t):
			errorf(name, k.Pos, "type %s holds floating-point values: == is not reflexive for NaN", t.Expr)
		default:
			errorf(name, k.Pos, "type %s has no equality", t.Expr)
		}
		if p.Derive.Compare && selectCmp(t, k.Addressable()) == 0 {
			errorf(name, k.Pos, "type %s has no total order", t.Expr)
		}
		if p.Derive.Hash && selectHash(t) == 0 {
			if t.Caps.Equal || t.Caps.Compare {
				errorf(name, k.Pos, "type %s defines its own equality but no Hash(cmpby.Hasher) method", t.Expr)
			} else {
				errorf(name, k.Pos, "type %s cannot be hashed", t.Expr)
			}
		}
		operator := p.Derive.Equal && eq == EqOperator || p.Derive.Hash && selectHash(t) == HashValue
		switch {
		case !operator:
		case t.Kind == load.PointerType:
			diags = append(diags, warnf(k.Pos, "%s: key %s of type %s is compared by address", s.Name, name, t.Expr))
		case t.Kind == load.InterfaceType:
			diags = append(diags, warnf(k.Pos, "%s: key %s of interface type %s panics if its dynamic value is not comparable", s.Name, name, t.Expr))
		}
	}
	for _, k := range p.Leading {
		check("", k)
	}
	for _, v := range p.Variants {
		prefix := ""
		if v.Name != "" {
			prefix = v.Name + "."
		}
		for _, k := range v.Keys {
			check(prefix, k)
		}
	}
	for _, k := range p.Trailing {
		check("", k)
	}
	if p.NumKeys() == 0 {
		diags = append(diags, warnf(s.Pos, "%s: type has no comparison keys: all values of a variant are equal", s.Name))
	}
	diags.Sort()
	return p, diags
}
